package model

import (
	"fmt"
	"time"
)

// Status is the user-facing stage of an application.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusApplied, StatusInterview, StatusOffer, StatusRejected}

// ParseStatus validates s against the known statuses.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
}

// Application is one saved job a user is tracking.
type Application struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Location  string    `json:"location"`
	Status    Status    `json:"status"`
	Date      time.Time `json:"date"`
	Link      string    `json:"link,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplicationPatch carries the editable fields of an Application. Nil fields are left unchanged.
// There is no UserID field: ownership is fixed at creation.
type ApplicationPatch struct {
	Company  *string    `json:"company,omitempty"`
	Position *string    `json:"position,omitempty"`
	Location *string    `json:"location,omitempty"`
	Status   *Status    `json:"status,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Link     *string    `json:"link,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
}

// ApplicationFilter narrows a Query. Zero values mean "any".
type ApplicationFilter struct {
	Status       Status
	Link         string
	Position     string
	CreatedAfter time.Time
	Limit        int
}

// Auth is the caller identity handed to the save pipeline.
type Auth struct {
	UserID string
	Token  string
}

// Apply returns a copy of a with the non-nil fields of p set.
func (a Application) Apply(p ApplicationPatch) Application {
	if p.Company != nil {
		a.Company = *p.Company
	}
	if p.Position != nil {
		a.Position = *p.Position
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Link != nil {
		a.Link = *p.Link
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	return a
}
