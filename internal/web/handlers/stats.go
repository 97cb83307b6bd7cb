package handlers

import (
	"net/http"
)

// StatsHandler handles archive statistics requests.
type StatsHandler struct {
	repo StatsRepository
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(repo StatsRepository) *StatsHandler {
	return &StatsHandler{repo: repo}
}

// Get handles GET /api/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, stats)
}
