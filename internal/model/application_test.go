package model

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}

	for _, bad := range []string{"", "Applied", "ghosted"} {
		if _, err := ParseStatus(bad); !IsValidation(err) {
			t.Errorf("ParseStatus(%q) err = %v, want ValidationError", bad, err)
		}
	}
}

func TestApplicationApply(t *testing.T) {
	app := Application{ID: "a1", Company: "Acme", Position: "Engineer", Status: StatusApplied, Notes: "keep"}
	company := "Globex"
	status := StatusOffer
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	got := app.Apply(ApplicationPatch{Company: &company, Status: &status, Date: &date})

	if got.Company != "Globex" || got.Status != StatusOffer || !got.Date.Equal(date) {
		t.Errorf("Apply = %+v", got)
	}
	if got.Position != "Engineer" || got.Notes != "keep" || got.ID != "a1" {
		t.Errorf("unpatched fields changed: %+v", got)
	}
	if app.Company != "Acme" {
		t.Error("Apply mutated the receiver")
	}
}
