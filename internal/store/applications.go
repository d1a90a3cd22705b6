package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobber/internal/model"
)

// Ensure ApplicationStore implements model.ApplicationStore.
var _ model.ApplicationStore = (*ApplicationStore)(nil)

// ApplicationStore persists applications in SQLite. Every read and write is
// scoped to the acting user.
type ApplicationStore struct {
	db  *sql.DB
	now func() time.Time
}

const applicationColumns = `id, user_id, company, position, location, status, date, link, notes, created_at, updated_at`

// Insert stores app, assigning an id and timestamps when they are unset.
func (s *ApplicationStore) Insert(ctx context.Context, app model.Application) (model.Application, error) {
	if app.UserID == "" {
		return model.Application{}, &model.ValidationError{Field: "user_id", Reason: "required"}
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	if app.Date.IsZero() {
		app.Date = now
	}
	if app.Status == "" {
		app.Status = model.StatusApplied
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.UserID, app.Company, app.Position, app.Location, string(app.Status),
		toMillis(app.Date), app.Link, app.Notes, toMillis(app.CreatedAt), toMillis(app.UpdatedAt),
	)
	if err != nil {
		return model.Application{}, fmt.Errorf("inserting application for %s: %w", app.UserID, err)
	}
	return normalize(app), nil
}

// Get returns the application with id. ErrForbidden means it exists but belongs to
// another user.
func (s *ApplicationStore) Get(ctx context.Context, userID, id string) (model.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Application{}, fmt.Errorf("application %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Application{}, fmt.Errorf("loading application %s: %w", id, err)
	}
	if app.UserID != userID {
		return model.Application{}, fmt.Errorf("application %s: %w", id, model.ErrForbidden)
	}
	return app, nil
}

// Update applies patch to the user's application and bumps updated_at.
func (s *ApplicationStore) Update(ctx context.Context, userID, id string, patch model.ApplicationPatch) (model.Application, error) {
	app, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Application{}, err
	}

	app = app.Apply(patch)
	app.UpdatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx, `UPDATE applications
		SET company = ?, position = ?, location = ?, status = ?, date = ?, link = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		app.Company, app.Position, app.Location, string(app.Status), toMillis(app.Date),
		app.Link, app.Notes, toMillis(app.UpdatedAt), id, userID,
	)
	if err != nil {
		return model.Application{}, fmt.Errorf("updating application %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Application{}, fmt.Errorf("application %s: %w", id, model.ErrNotFound)
	}
	return normalize(app), nil
}

// Delete removes the user's application.
func (s *ApplicationStore) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("deleting application %s: %w", id, err)
	}
	return nil
}

// Query lists the user's applications, newest first.
func (s *ApplicationStore) Query(ctx context.Context, userID string, filter model.ApplicationFilter) ([]model.Application, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Link != "" {
		where = append(where, "link = ?")
		args = append(args, filter.Link)
	}
	if filter.Position != "" {
		where = append(where, "position = ?")
		args = append(args, filter.Position)
	}
	if !filter.CreatedAfter.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toMillis(filter.CreatedAfter))
	}

	q := `SELECT ` + applicationColumns + ` FROM applications WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying applications for %s: %w", userID, err)
	}
	defer rows.Close()

	var apps []model.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applications: %w", err)
	}
	return apps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(sc scanner) (model.Application, error) {
	var (
		app                    model.Application
		status                 string
		date, created, updated int64
	)
	err := sc.Scan(&app.ID, &app.UserID, &app.Company, &app.Position, &app.Location, &status,
		&date, &app.Link, &app.Notes, &created, &updated)
	if err != nil {
		return model.Application{}, err
	}
	app.Status = model.Status(status)
	app.Date = fromMillis(date)
	app.CreatedAt = fromMillis(created)
	app.UpdatedAt = fromMillis(updated)
	return app, nil
}

// normalize rounds timestamps to the stored precision so returned values match later reads.
func normalize(app model.Application) model.Application {
	app.Date = fromMillis(toMillis(app.Date))
	app.CreatedAt = fromMillis(toMillis(app.CreatedAt))
	app.UpdatedAt = fromMillis(toMillis(app.UpdatedAt))
	return app
}
