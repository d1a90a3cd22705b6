package model

// EventKind names what happened to an application.
type EventKind string

const (
	EventSaved         EventKind = "saved"
	EventStatusChanged EventKind = "status_changed"
)

// Event is a user-facing notification about an application.
type Event struct {
	Kind        EventKind
	Application Application
	From        Status // previous status, status_changed only
	Message     string
}
