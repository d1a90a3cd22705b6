// Package stats computes the dashboard numbers for a user's applications.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

const (
	recentCount  = 3
	monthsOfData = 6
)

// MonthCount is the number of applications created in one calendar month.
type MonthCount struct {
	Name  string `json:"name"`
	Year  int    `json:"year"`
	Count int    `json:"count"`
}

// Dashboard summarizes a user's applications.
type Dashboard struct {
	Total       int                 `json:"total_applications"`
	ThisMonth   int                 `json:"this_month"`
	InProgress  int                 `json:"in_progress"`
	Interviews  int                 `json:"interviews"`
	SuccessRate int                 `json:"success_rate"`
	Recent      []model.Application `json:"recent_applications"`
	Monthly     []MonthCount        `json:"monthly_applications"`
}

// Compute builds the dashboard for apps as of now. Months are calendar months
// in now's location.
func Compute(apps []model.Application, now time.Time) Dashboard {
	sorted := make([]model.Application, len(apps))
	copy(sorted, apps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return created(sorted[i]).After(created(sorted[j]))
	})

	loc := now.Location()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	d := Dashboard{Total: len(sorted)}
	var responses, offers int
	for _, app := range sorted {
		if !created(app).Before(startOfMonth) {
			d.ThisMonth++
		}
		switch app.Status {
		case model.StatusApplied:
			d.InProgress++
		case model.StatusInterview:
			d.InProgress++
			d.Interviews++
			responses++
		case model.StatusOffer:
			offers++
			responses++
		case model.StatusRejected:
			responses++
		}
	}
	if responses > 0 {
		d.SuccessRate = int(math.Round(float64(offers) / float64(responses) * 100))
	}

	n := min(recentCount, len(sorted))
	d.Recent = sorted[:n:n]

	d.Monthly = make([]MonthCount, monthsOfData)
	for i := range monthsOfData {
		// Step from the first of the month so short months are never skipped.
		month := startOfMonth.AddDate(0, i-(monthsOfData-1), 0)
		d.Monthly[i] = MonthCount{Name: month.Format("Jan"), Year: month.Year()}
	}
	for _, app := range sorted {
		c := created(app).In(loc)
		for i := range d.Monthly {
			m := startOfMonth.AddDate(0, i-(monthsOfData-1), 0)
			if c.Year() == m.Year() && c.Month() == m.Month() {
				d.Monthly[i].Count++
				break
			}
		}
	}
	return d
}

// created is when the application was saved, falling back to its date.
func created(app model.Application) time.Time {
	if !app.CreatedAt.IsZero() {
		return app.CreatedAt
	}
	return app.Date
}
