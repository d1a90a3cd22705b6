// Package api serves the jobber REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amishk599/jobber/internal/lifecycle"
	"github.com/amishk599/jobber/internal/messaging"
	"github.com/amishk599/jobber/internal/model"
	"github.com/amishk599/jobber/internal/save"
	"github.com/amishk599/jobber/internal/stats"
)

const maxBodySize = 1 << 20 // 1MB
const maxMessageSize = 8 << 20

// Deps are the collaborators behind the API.
type Deps struct {
	Applications model.ApplicationStore
	Tokens       TokenLookup
	Lifecycle    *lifecycle.Manager
	Notifier     model.Notifier // optional; notified of created applications
	Extension    ExtensionHost // optional; enables /api/extension/messages
	Now          func() time.Time
	Logger       *slog.Logger
}

// ExtensionHost runs extension messages on behalf of an authenticated caller.
type ExtensionHost interface {
	Send(ctx context.Context, caller model.Auth, msg messaging.Message) (messaging.Response, error)
}

// NewHandler builds the API router.
func NewHandler(deps Deps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerAuth(deps.Tokens))

		r.Get("/applications", handleListApplications(deps))
		r.Post("/applications", handleCreateApplication(deps))
		r.Get("/applications/{id}", handleGetApplication(deps))
		r.Patch("/applications/{id}", handlePatchApplication(deps))
		r.Delete("/applications/{id}", handleDeleteApplication(deps))
		r.Post("/applications/{id}/status", handleTransition(deps))
		r.Get("/stats", handleStats(deps))
		if deps.Extension != nil {
			r.Post("/extension/messages", handleExtensionMessage(deps))
		}
	})
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleListApplications(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, _ := AuthFrom(r.Context())
		filter, err := parseFilter(r)
		if err != nil {
			writeModelError(w, err)
			return
		}
		apps, err := deps.Applications.Query(r.Context(), auth.UserID, filter)
		if err != nil {
			writeModelError(w, err)
			return
		}
		if apps == nil {
			apps = []model.Application{}
		}
		writeJSON(w, http.StatusOK, apps)
	}
}

func handleCreateApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var app model.Application
		if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := save.ValidateApplication(app); err != nil {
			writeModelError(w, err)
			return
		}
		if app.Status != "" {
			if _, err := model.ParseStatus(string(app.Status)); err != nil {
				writeModelError(w, err)
				return
			}
		}

		auth, _ := AuthFrom(r.Context())
		// Ownership comes from the token, never from the body.
		app.ID = ""
		app.UserID = auth.UserID

		created, err := deps.Applications.Insert(r.Context(), app)
		if err != nil {
			writeModelError(w, err)
			return
		}
		deps.Logger.Info("application created", "application_id", created.ID, "user_id", auth.UserID)
		if deps.Notifier != nil {
			if err := deps.Notifier.Notify([]model.Event{{Kind: model.EventSaved, Application: created}}); err != nil {
				deps.Logger.Warn("save notification failed", "application_id", created.ID, "error", err)
			}
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleGetApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, _ := AuthFrom(r.Context())
		app, err := deps.Applications.Get(r.Context(), auth.UserID, chi.URLParam(r, "id"))
		if err != nil {
			writeModelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, app)
	}
}

func handlePatchApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var patch model.ApplicationPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if patch.Status != nil {
			if _, err := model.ParseStatus(string(*patch.Status)); err != nil {
				writeModelError(w, err)
				return
			}
		}

		auth, _ := AuthFrom(r.Context())
		id := chi.URLParam(r, "id")
		current, err := deps.Applications.Get(r.Context(), auth.UserID, id)
		if err != nil {
			writeModelError(w, err)
			return
		}
		if err := save.ValidateApplication(current.Apply(patch)); err != nil {
			writeModelError(w, err)
			return
		}

		app, err := deps.Applications.Update(r.Context(), auth.UserID, id, patch)
		if err != nil {
			writeModelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, app)
	}
}

func handleDeleteApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, _ := AuthFrom(r.Context())
		id := chi.URLParam(r, "id")
		if err := deps.Applications.Delete(r.Context(), auth.UserID, id); err != nil {
			writeModelError(w, err)
			return
		}
		deps.Logger.Info("application deleted", "application_id", id, "user_id", auth.UserID)
		w.WriteHeader(http.StatusNoContent)
	}
}

type transitionRequest struct {
	Status string `json:"status"`
}

type transitionResponse struct {
	Application model.Application `json:"application"`
	Message     string            `json:"message"`
}

func handleTransition(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		to, err := model.ParseStatus(req.Status)
		if err != nil {
			writeModelError(w, err)
			return
		}

		auth, _ := AuthFrom(r.Context())
		app, err := deps.Lifecycle.Transition(r.Context(), auth.UserID, chi.URLParam(r, "id"), to)
		if err != nil {
			writeModelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, transitionResponse{Application: app, Message: lifecycle.Message(to)})
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, _ := AuthFrom(r.Context())
		apps, err := deps.Applications.Query(r.Context(), auth.UserID, model.ApplicationFilter{})
		if err != nil {
			writeModelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats.Compute(apps, deps.Now()))
	}
}

func handleExtensionMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMessageSize)
		defer r.Body.Close()

		var msg messaging.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid message: %v", err)
			return
		}

		auth, _ := AuthFrom(r.Context())
		resp, err := deps.Extension.Send(r.Context(), auth, msg)
		switch {
		case errors.Is(err, messaging.ErrUnknownType):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		case model.IsAuthRequired(err):
			writeModelError(w, err)
			return
		case err != nil:
			httpError(w, http.StatusGatewayTimeout, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseFilter(r *http.Request) (model.ApplicationFilter, error) {
	q := r.URL.Query()
	f := model.ApplicationFilter{
		Link:     q.Get("link"),
		Position: q.Get("position"),
	}
	if s := q.Get("status"); s != "" {
		st, err := model.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	if s := q.Get("created_after"); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return f, &model.ValidationError{Field: "created_after", Reason: "must be an RFC 3339 timestamp"}
		}
		f.CreatedAfter = t
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, &model.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
		}
		f.Limit = n
	}
	return f, nil
}
