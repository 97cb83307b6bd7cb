package handlers

import (
	"net/http"
)

// health check intervals handed to clients, in seconds
const (
	healthyCheckInterval   = 60
	unhealthyCheckInterval = 1
)

// HealthHandler handles health probe requests.
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /api/health.
// The next_check_in_seconds field dictates the client's polling interval:
// long while healthy, aggressive once the database drops.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"data": map[string]interface{}{
				"status":                "unhealthy",
				"database":              "connection failed: " + err.Error(),
				"next_check_in_seconds": unhealthyCheckInterval,
			},
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"status":                "healthy",
			"database":              "connected",
			"next_check_in_seconds": healthyCheckInterval,
		},
	})
}
