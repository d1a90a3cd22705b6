package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/amishk599/jobber/internal/model"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeError(w, code, errType, fmt.Sprintf(format, args...), "")
}

func writeError(w http.ResponseWriter, code int, errType, msg, field string) {
	body := map[string]any{
		"message": msg,
		"type":    errType,
	}
	if field != "" {
		body["field"] = field
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"error": body})
}

// writeModelError maps the model error types onto HTTP statuses.
func writeModelError(w http.ResponseWriter, err error) {
	var (
		ve *model.ValidationError
		ae *model.AuthRequiredError
		te *model.TransportError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, "validation_error", ve.Reason, ve.Field)
	case errors.As(err, &ae):
		writeError(w, http.StatusUnauthorized, "authentication_error", ae.Error(), "")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "application not found", "")
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "application belongs to another user", "")
	case errors.As(err, &te):
		writeError(w, http.StatusBadGateway, "api_error", te.Error(), "")
	default:
		writeError(w, http.StatusInternalServerError, "api_error", err.Error(), "")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
