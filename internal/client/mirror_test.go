package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telibelly/telibelly/internal/models"
)

// newMirrorServer serves a fixed dataset of total messages in pages.
func newMirrorServer(t *testing.T, total int, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		page := []models.Message{}
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, models.Message{
				ID:   int64(i + 1),
				Text: fmt.Sprintf("message %d", i+1),
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    page,
			"count":   len(page),
		})
	}))
}

func TestMirror_Sync(t *testing.T) {
	t.Run("pages through the full dataset", func(t *testing.T) {
		var requests atomic.Int32
		server := newMirrorServer(t, 250, &requests)
		defer server.Close()

		m := NewMirror(New(server.URL))
		n, err := m.Sync(context.Background())
		require.NoError(t, err)

		// 100 + 100 + 50; the short third page ends the walk
		assert.Equal(t, 250, n)
		assert.Equal(t, int32(3), requests.Load())
		assert.Equal(t, 250, m.Len())

		messages := m.Messages()
		assert.Equal(t, int64(1), messages[0].ID)
		assert.Equal(t, int64(250), messages[249].ID)
	})

	t.Run("page-aligned dataset needs one extra empty page", func(t *testing.T) {
		var requests atomic.Int32
		server := newMirrorServer(t, 200, &requests)
		defer server.Close()

		m := NewMirror(New(server.URL))
		n, err := m.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 200, n)
		assert.Equal(t, int32(3), requests.Load())
	})

	t.Run("empty dataset", func(t *testing.T) {
		server := newMirrorServer(t, 0, nil)
		defer server.Close()

		m := NewMirror(New(server.URL))
		n, err := m.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestMirror_KeepsSnapshotOnError(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "boom"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    []models.Message{{ID: 1, Text: "kept"}},
			"count":   1,
		})
	}))
	defer server.Close()

	m := NewMirror(New(server.URL))
	_, err := m.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	fail.Store(true)
	_, err = m.Sync(context.Background())
	require.Error(t, err)

	// the previous snapshot survives the failed sync
	messages := m.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "kept", messages[0].Text)
}

func TestMirror_RejectsOverlappingSync(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    []models.Message{},
			"count":   0,
		})
	}))
	defer server.Close()

	m := NewMirror(New(server.URL))

	firstDone := make(chan error, 1)
	go func() {
		_, err := m.Sync(context.Background())
		firstDone <- err
	}()

	// wait for the first sync to take the flag
	for !m.Syncing() {
	}

	_, err := m.Sync(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(release)
	require.NoError(t, <-firstDone)
	assert.False(t, m.Syncing())
}
