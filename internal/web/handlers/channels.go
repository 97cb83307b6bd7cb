package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/telibelly/telibelly/internal/models"
	"github.com/telibelly/telibelly/internal/repository"
)

// ChannelsHandler handles channel listing and fetch bookkeeping.
type ChannelsHandler struct {
	repo ChannelsRepository
}

// NewChannelsHandler creates a new ChannelsHandler.
func NewChannelsHandler(repo ChannelsRepository) *ChannelsHandler {
	return &ChannelsHandler{repo: repo}
}

// List handles GET /api/channels
func (h *ChannelsHandler) List(w http.ResponseWriter, r *http.Request) {
	channels, err := h.repo.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if channels == nil {
		channels = []models.Channel{}
	}

	respondList(w, channels, len(channels))
}

// UpdateFetchStatus handles PUT|POST /api/channels/{name}/fetch-status
func (h *ChannelsHandler) UpdateFetchStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	switch payload.Status {
	case models.FetchStatusProcessing, models.FetchStatusDone, models.FetchStatusFailed:
	default:
		respondError(w, http.StatusBadRequest, "status must be processing, done or failed")
		return
	}

	now := time.Now().Format(models.TimestampFormat)
	upd := repository.FetchStatusUpdate{Status: &payload.Status}
	if payload.Status == models.FetchStatusProcessing {
		upd.StartedAt = &now
	} else {
		upd.EndedAt = &now
	}

	if err := h.repo.UpdateFetchStatus(r.Context(), name, upd); err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			respondError(w, http.StatusNotFound, "Channel not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  payload.Status,
	})
}
