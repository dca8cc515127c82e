package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/fincoach/internal/domain"
	"github.com/ashureev/fincoach/internal/identity"
)

const (
	maxMessageBytes      = 16 << 10
	defaultRecentMinutes = 10
)

type screenRequest struct {
	Screen string `json:"screen"`
}

type messageRequest struct {
	Role   string `json:"role"`
	Text   string `json:"text"`
	Screen string `json:"screen,omitempty"`
}

type recentResponse struct {
	Recent  bool `json:"recent"`
	Minutes int  `json:"minutes"`
}

// SetScreen records the screen the caller navigated to.
func (h *Handler) SetScreen(w http.ResponseWriter, r *http.Request) {
	var req screenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Screen = strings.TrimSpace(req.Screen)
	if req.Screen == "" {
		Error(w, http.StatusBadRequest, "screen is required")
		return
	}

	tracker := h.tracker(r)
	tracker.SetCurrentScreen(req.Screen)
	JSON(w, http.StatusOK, tracker.Context())
}

// AddMessage appends a user message or AI response to the caller's session.
func (h *Handler) AddMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}

	tracker := h.tracker(r)
	if err := appendMessage(tracker, domain.EventKind(req.Role), req.Text, req.Screen); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	JSON(w, http.StatusCreated, tracker.Context())
}

// GetContext returns the recent history of the caller's session.
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.tracker(r).Context())
}

// GetSummary returns the conversation summary, or 204 before the first user message.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary := h.tracker(r).Summary()
	if summary == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	JSON(w, http.StatusOK, summary)
}

// GetRecent reports whether the caller talked within the last ?minutes= (default 10).
func (h *Handler) GetRecent(w http.ResponseWriter, r *http.Request) {
	minutes := defaultRecentMinutes
	if v := r.URL.Query().Get("minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "minutes must be a positive integer")
			return
		}
		minutes = n
	}
	recent := h.tracker(r).HasRecentConversation(time.Duration(minutes) * time.Minute)
	JSON(w, http.StatusOK, recentResponse{Recent: recent, Minutes: minutes})
}

// ClearConversation resets the caller's session and drops their cached cards.
func (h *Handler) ClearConversation(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())

	h.sessions.Clear(userID, sessionID)
	h.content.Invalidate(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}
