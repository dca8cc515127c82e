package api

import (
	"net/http"
	"strconv"

	"github.com/ashureev/fincoach/internal/content"
	"github.com/ashureev/fincoach/internal/domain"
	"github.com/go-chi/chi/v5"
)

// GetCard returns personalized content for one card. Generation failures
// still answer 200 with fallback content.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardType := domain.CardType(chi.URLParam(r, "cardType"))
	if cardType == "" {
		Error(w, http.StatusBadRequest, "card type is required")
		return
	}
	profile, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	tracker := h.tracker(r)
	c := h.content.GetContent(r.Context(), tracker, content.Request{
		CardType:     cardType,
		Profile:      profile,
		Screen:       screenFor(r, tracker),
		ForceRefresh: refresh,
	})
	JSON(w, http.StatusOK, c)
}

// GetRecommendations returns the ranked cross-sell result for the caller.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	tracker := h.tracker(r)
	res := h.engine.EvaluateWithMessage(profile, screenFor(r, tracker), tracker.LastUserMessage())
	JSON(w, http.StatusOK, res)
}
