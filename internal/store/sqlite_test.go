package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jobber.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s.Close()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		t.Fatalf("counting versions: %v", err)
	}
	if n != 1 {
		t.Errorf("schema_version rows = %d, want 1", n)
	}
}

func TestApplications_InsertThenGet(t *testing.T) {
	apps := newTestDB(t).Applications()
	apps.now = fixedClock(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))
	ctx := context.Background()

	created, err := apps.Insert(ctx, model.Application{
		UserID:   "user-1",
		Company:  "Acme Corp",
		Position: "Backend Engineer",
		Location: "Remote",
		Link:     "https://www.linkedin.com/jobs/view/123",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if created.Status != model.StatusApplied {
		t.Errorf("Status = %s, want applied", created.Status)
	}

	got, err := apps.Get(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != created {
		t.Errorf("Get mismatch:\n got  %+v\n want %+v", got, created)
	}
}

func TestApplications_InsertRequiresUser(t *testing.T) {
	apps := newTestDB(t).Applications()
	_, err := apps.Insert(context.Background(), model.Application{Company: "Acme", Position: "Eng"})
	if !model.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestApplications_ScopedByUser(t *testing.T) {
	apps := newTestDB(t).Applications()
	ctx := context.Background()

	a, err := apps.Insert(ctx, model.Application{UserID: "alice", Company: "Acme", Position: "Eng"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if _, err := apps.Get(ctx, "bob", a.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("Get as other user: expected ErrForbidden, got %v", err)
	}
	status := model.StatusOffer
	if _, err := apps.Update(ctx, "bob", a.ID, model.ApplicationPatch{Status: &status}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("Update as other user: expected ErrForbidden, got %v", err)
	}
	if err := apps.Delete(ctx, "bob", a.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("Delete as other user: expected ErrForbidden, got %v", err)
	}
	list, err := apps.Query(ctx, "bob", model.ApplicationFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("bob sees %d applications, want 0", len(list))
	}
	if _, err := apps.Get(ctx, "alice", "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Get missing: expected ErrNotFound, got %v", err)
	}
}

func TestApplications_UpdatePatchesFieldsAndKeepsOwner(t *testing.T) {
	apps := newTestDB(t).Applications()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	apps.now = fixedClock(start)

	a, err := apps.Insert(ctx, model.Application{UserID: "alice", Company: "Acme", Position: "Eng", Notes: "first"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	apps.now = fixedClock(start.Add(time.Hour))
	status := model.StatusInterview
	notes := "phone screen booked"
	got, err := apps.Update(ctx, "alice", a.ID, model.ApplicationPatch{Status: &status, Notes: &notes})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != model.StatusInterview || got.Notes != notes {
		t.Errorf("patched fields not applied: %+v", got)
	}
	if got.Company != "Acme" || got.UserID != "alice" {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if !got.UpdatedAt.Equal(start.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(start) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, start)
	}
}

func TestApplications_DeleteRemovesRow(t *testing.T) {
	apps := newTestDB(t).Applications()
	ctx := context.Background()

	a, err := apps.Insert(ctx, model.Application{UserID: "alice", Company: "Acme", Position: "Eng"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := apps.Delete(ctx, "alice", a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := apps.Get(ctx, "alice", a.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestApplications_QueryFiltersAndOrders(t *testing.T) {
	apps := newTestDB(t).Applications()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, status := range []model.Status{model.StatusApplied, model.StatusRejected, model.StatusApplied} {
		apps.now = fixedClock(base.Add(time.Duration(i) * time.Hour))
		if _, err := apps.Insert(ctx, model.Application{
			UserID:   "alice",
			Company:  "Acme",
			Position: "Eng",
			Status:   status,
			Link:     "https://example.com/" + string(rune('a'+i)),
		}); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	all, err := apps.Query(ctx, "alice", model.ApplicationFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}
	if all[0].Link != "https://example.com/c" {
		t.Errorf("expected newest first, got %s", all[0].Link)
	}

	applied, err := apps.Query(ctx, "alice", model.ApplicationFilter{Status: model.StatusApplied})
	if err != nil {
		t.Fatalf("Query status: %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %d, want 2", len(applied))
	}

	recent, err := apps.Query(ctx, "alice", model.ApplicationFilter{CreatedAfter: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("Query created_after: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("recent = %d, want 1", len(recent))
	}

	limited, err := apps.Query(ctx, "alice", model.ApplicationFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}
}

func TestCaptures_SetGetRemove(t *testing.T) {
	kv := newTestDB(t).Captures()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "jobDetails_1"); err != nil || ok {
		t.Fatalf("Get on empty store = %v, %v", ok, err)
	}
	if err := kv.Set(ctx, "jobDetails_1", []byte(`{"title":"a"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, "jobDetails_1", []byte(`{"title":"b"}`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := kv.Get(ctx, "jobDetails_1")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if string(v) != `{"title":"b"}` {
		t.Errorf("value = %s", v)
	}
	if err := kv.Remove(ctx, "jobDetails_1", "missing"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "jobDetails_1"); ok {
		t.Error("expected key to be removed")
	}
}

func TestCaptures_CleanupRemovesOldKeepsFreshAndOtherPrefixes(t *testing.T) {
	kv := newTestDB(t).Captures()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	kv.now = fixedClock(now.Add(-48 * time.Hour))
	kv.Set(ctx, "jobDetails_1", []byte("old"))
	kv.Set(ctx, "token", []byte("old-but-not-a-capture"))

	kv.now = fixedClock(now)
	kv.Set(ctx, "jobDetails_2", []byte("fresh"))

	n, err := kv.Cleanup(ctx, "jobDetails_", 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 1 {
		t.Errorf("removed %d, want 1", n)
	}
	if _, ok, _ := kv.Get(ctx, "jobDetails_1"); ok {
		t.Error("expected old capture to be cleaned up")
	}
	if _, ok, _ := kv.Get(ctx, "jobDetails_2"); !ok {
		t.Error("expected fresh capture to survive")
	}
	if _, ok, _ := kv.Get(ctx, "token"); !ok {
		t.Error("expected non-capture key to survive")
	}
}

func TestTokens_CreateLookupRevoke(t *testing.T) {
	tokens := newTestDB(t).Tokens()
	ctx := context.Background()

	tok, err := tokens.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	user, err := tokens.Lookup(ctx, tok)
	if err != nil || user != "alice" {
		t.Fatalf("Lookup = %q, %v", user, err)
	}
	if err := tokens.Revoke(ctx, tok); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := tokens.Lookup(ctx, tok); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after revoke, got %v", err)
	}
}
