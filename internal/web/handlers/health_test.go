package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeChecker struct {
	err error
}

func (f fakeChecker) Ping() error { return f.err }

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler(fakeChecker{})

		req := httptest.NewRequest("GET", "/api/health", nil)
		rec := httptest.NewRecorder()
		h.Health(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "healthy", data["status"])
		assert.Equal(t, "connected", data["database"])
		assert.Equal(t, float64(60), data["next_check_in_seconds"])
	})

	t.Run("unhealthy shortens the next check", func(t *testing.T) {
		h := NewHealthHandler(fakeChecker{err: errors.New("database is locked")})

		req := httptest.NewRequest("GET", "/api/health", nil)
		rec := httptest.NewRecorder()
		h.Health(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "unhealthy", data["status"])
		assert.Contains(t, data["database"], "database is locked")
		assert.Equal(t, float64(1), data["next_check_in_seconds"])
	})
}
