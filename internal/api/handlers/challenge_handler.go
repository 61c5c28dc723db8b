package handlers

import (
	"net/http"

	"github.com/isdelr/socialquest-be/internal/services"
)

// ChallengeHandler exposes the caller's challenges.
type ChallengeHandler struct {
	service services.ChallengeServiceProvider
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(service services.ChallengeServiceProvider) *ChallengeHandler {
	return &ChallengeHandler{service: service}
}

// GetAll lists the caller's challenges, seeding a fresh set when none exist.
func (h *ChallengeHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	challenges, err := h.service.GetChallenges(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, challenges)
}
