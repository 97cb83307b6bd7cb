package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/telibelly/telibelly/internal/models"
)

// mirrorPageSize is how many messages each sync request asks for. A page
// shorter than this marks the end of the dataset.
const mirrorPageSize = 100

// ErrSyncInProgress is returned by Sync when another sync is still running.
var ErrSyncInProgress = errors.New("sync already in progress")

// Mirror keeps a local copy of the full message dataset. A sync pages
// through the API into a fresh snapshot and swaps it in only when every page
// succeeded, so readers never observe a half-fetched dataset.
type Mirror struct {
	client *Client

	mu       sync.RWMutex
	messages []models.Message

	syncing atomic.Bool
}

// NewMirror creates an empty mirror backed by c.
func NewMirror(c *Client) *Mirror {
	return &Mirror{client: c}
}

// Sync refreshes the mirror from the server and returns the number of
// messages fetched. Overlapping calls are rejected with ErrSyncInProgress.
// On error the previous snapshot stays in place.
func (m *Mirror) Sync(ctx context.Context) (int, error) {
	if !m.syncing.CompareAndSwap(false, true) {
		return 0, ErrSyncInProgress
	}
	defer m.syncing.Store(false)

	snapshot := make([]models.Message, 0, mirrorPageSize)
	offset := 0
	for {
		page, err := m.client.Messages(ctx, Query{Limit: mirrorPageSize, Offset: offset})
		if err != nil {
			return 0, err
		}
		snapshot = append(snapshot, page...)
		if len(page) < mirrorPageSize {
			break
		}
		offset += mirrorPageSize
	}

	m.mu.Lock()
	m.messages = snapshot
	m.mu.Unlock()

	return len(snapshot), nil
}

// Syncing reports whether a sync is currently running.
func (m *Mirror) Syncing() bool {
	return m.syncing.Load()
}

// Messages returns a copy of the current snapshot.
func (m *Mirror) Messages() []models.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the size of the current snapshot.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}
