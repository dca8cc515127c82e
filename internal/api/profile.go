package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ashureev/fincoach/internal/domain"
	"github.com/ashureev/fincoach/internal/identity"
)

const maxProfileBytes = 64 << 10

// GetProfile returns the caller's profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, profile)
}

// PutProfile stores the caller's profile. The id always comes from the request identity.
func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var profile domain.UserProfile
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProfileBytes)).Decode(&profile); err != nil {
		Error(w, http.StatusBadRequest, "invalid profile body")
		return
	}
	profile.ID = userID

	if err := h.profiles.UpsertProfile(r.Context(), &profile); err != nil {
		if errors.Is(err, domain.ErrInvalidProfile) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to store profile", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to store profile")
		return
	}

	// Cached cards were generated from the old numbers.
	h.content.Invalidate(r.Context(), userID)
	h.tracker(r).SetUserContext(&profile)

	h.logger.Info("Profile updated", "user_id", userID)
	JSON(w, http.StatusOK, &profile)
}
