// Package handlers implements the dashboard REST API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/telibelly/telibelly/internal/models"
	"github.com/telibelly/telibelly/internal/repository"
	"github.com/telibelly/telibelly/internal/web"
)

// MessagesHandler handles message browsing and flag/tag requests.
type MessagesHandler struct {
	repo MessagesRepository
	hub  *web.Hub
}

// NewMessagesHandler creates a new MessagesHandler.
// hub may be nil, flag changes are then not broadcast.
func NewMessagesHandler(repo MessagesRepository, hub *web.Hub) *MessagesHandler {
	return &MessagesHandler{repo: repo, hub: hub}
}

// List handles GET /api/messages
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	filter := repository.MessageFilter{
		Channel:   q.Get("channel"),
		Search:    q.Get("search"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		OnlyRead:  boolParam(q.Get("filter_read")),
		OnlyLiked: boolParam(q.Get("filter_like")),
		Trashed:   boolParam(q.Get("filter_trash")),
		Limit:     limit,
		Offset:    offset,
	}

	messages, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// empty array, not null
	if messages == nil {
		messages = []models.Message{}
	}

	respondList(w, messages, len(messages))
}

// MarkRead handles PUT|POST /api/messages/{id}/read
func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	if err := h.repo.MarkRead(r.Context(), id); err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notify(id, "read")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Message marked as read",
	})
}

// ToggleLike handles PUT|POST /api/messages/{id}/like
func (h *MessagesHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	liked, err := h.repo.ToggleLike(r.Context(), id)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notify(id, "like")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"liked":   liked,
	})
}

// ToggleTrash handles PUT|POST /api/messages/{id}/trash
func (h *MessagesHandler) ToggleTrash(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	action, err := h.repo.ToggleTrash(r.Context(), id)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notify(id, "trash")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"action":  action,
	})
}

// SetTags handles PUT|POST /api/messages/{id}/tags
func (h *MessagesHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Tags string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	stored, err := h.repo.SetTags(r.Context(), id, payload.Tags)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notify(id, "tags")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tags":    stored,
	})
}

// boolParam treats any value except an explicit negation as true.
func boolParam(v string) bool {
	return v != "" && v != "false" && v != "0"
}

func (h *MessagesHandler) messageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid message id")
		return 0, false
	}
	return id, true
}

func (h *MessagesHandler) respondRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrMessageNotFound) {
		respondError(w, http.StatusNotFound, "Message not found")
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func (h *MessagesHandler) notify(id int64, field string) {
	if h.hub != nil {
		h.hub.Broadcast(web.MessageUpdatedEvent(id, field))
	}
}
