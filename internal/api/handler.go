// Package api provides HTTP handlers for the fincoach API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ashureev/fincoach/internal/content"
	"github.com/ashureev/fincoach/internal/conversation"
	"github.com/ashureev/fincoach/internal/domain"
	"github.com/ashureev/fincoach/internal/identity"
	"github.com/ashureev/fincoach/internal/store"
	"github.com/ashureev/fincoach/internal/triggers"
	"github.com/go-chi/chi/v5"
)

const defaultScreen = "dashboard"

// Handler serves the card, recommendation, conversation and profile routes.
type Handler struct {
	profiles store.Repository
	sessions *conversation.Registry
	engine   *triggers.Engine
	content  *content.Service
	logger   *slog.Logger
}

// NewHandler creates a new Handler. A nil logger uses slog.Default().
func NewHandler(profiles store.Repository, sessions *conversation.Registry, engine *triggers.Engine, svc *content.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		profiles: profiles,
		sessions: sessions,
		engine:   engine,
		content:  svc,
		logger:   logger,
	}
}

// RegisterRoutes mounts the API under /api. Callers install identity.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.PutProfile)

		r.Get("/cards/{cardType}", h.GetCard)
		r.Get("/recommendations", h.GetRecommendations)

		r.Route("/conversation", func(r chi.Router) {
			r.Post("/screen", h.SetScreen)
			r.Post("/messages", h.AddMessage)
			r.Get("/context", h.GetContext)
			r.Get("/summary", h.GetSummary)
			r.Get("/recent", h.GetRecent)
			r.Delete("/", h.ClearConversation)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// tracker returns the conversation tracker of the request's session.
func (h *Handler) tracker(r *http.Request) *conversation.Tracker {
	return h.sessions.Get(identity.UserIDFromContext(r.Context()), identity.SessionIDFromContext(r.Context()))
}

// loadProfile writes the error response itself and reports false when no profile is available.
func (h *Handler) loadProfile(w http.ResponseWriter, r *http.Request) (*domain.UserProfile, bool) {
	userID := identity.UserIDFromContext(r.Context())
	profile, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load profile", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load profile")
		return nil, false
	}
	if profile == nil {
		Error(w, http.StatusNotFound, domain.ErrProfileNotFound.Error())
		return nil, false
	}
	return profile, true
}

// screenFor returns the screen query parameter, the session's current screen, or the dashboard.
func screenFor(r *http.Request, tracker *conversation.Tracker) string {
	if s := r.URL.Query().Get("screen"); s != "" {
		return s
	}
	if s := tracker.CurrentScreen(); s != "" {
		return s
	}
	return defaultScreen
}
