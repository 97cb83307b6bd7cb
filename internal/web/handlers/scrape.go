package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/telibelly/telibelly/internal/scraper"
)

// ScrapeHandler handles scrape control requests.
type ScrapeHandler struct {
	coordinator ScrapeCoordinator
	stats       StatsRepository
}

// NewScrapeHandler creates a new ScrapeHandler.
func NewScrapeHandler(coordinator ScrapeCoordinator, stats StatsRepository) *ScrapeHandler {
	return &ScrapeHandler{coordinator: coordinator, stats: stats}
}

// Start handles POST /api/scrape/start
func (h *ScrapeHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req scraper.StartRequest
	// an empty body means defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.coordinator.Start(r.Context(), req); err != nil {
		if errors.Is(err, scraper.ErrAlreadyRunning) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Scraping process started in background",
	})
}

// Status handles GET /api/scrape/status
func (h *ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  h.coordinator.Status(),
	})
}

// Stats handles GET /api/scrape/stats
func (h *ScrapeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, stats)
}
