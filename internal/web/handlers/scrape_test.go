package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/telibelly/telibelly/internal/repository"
	"github.com/telibelly/telibelly/internal/scraper"
)

// MockCoordinator is a mock for ScrapeCoordinator
type MockCoordinator struct {
	mock.Mock
}

func (m *MockCoordinator) Start(ctx context.Context, req scraper.StartRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockCoordinator) Status() scraper.Status {
	args := m.Called()
	return args.Get(0).(scraper.Status)
}

// MockStatsRepository is a mock for StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Get(ctx context.Context) (*repository.ArchiveStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ArchiveStats), args.Error(1)
}

func TestScrapeHandler_Start(t *testing.T) {
	t.Run("starts with defaults on empty body", func(t *testing.T) {
		coord := new(MockCoordinator)
		coord.On("Start", mock.Anything, mock.MatchedBy(func(r scraper.StartRequest) bool {
			return r.DaysBack == 3 && r.Limit == 1000
		})).Return(nil)

		h := NewScrapeHandler(coord, nil)

		req := httptest.NewRequest("POST", "/api/scrape/start", nil)
		rec := httptest.NewRecorder()
		h.Start(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Contains(t, body["message"], "started")
		coord.AssertExpectations(t)
	})

	t.Run("conflict when already running", func(t *testing.T) {
		coord := new(MockCoordinator)
		coord.On("Start", mock.Anything, mock.Anything).Return(scraper.ErrAlreadyRunning)

		h := NewScrapeHandler(coord, nil)

		req := httptest.NewRequest("POST", "/api/scrape/start", nil)
		rec := httptest.NewRecorder()
		h.Start(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "scraping is already in progress", body["error"])
	})

	t.Run("rejects invalid days_back", func(t *testing.T) {
		h := NewScrapeHandler(new(MockCoordinator), nil)

		payload := bytes.NewBufferString(`{"days_back": -1}`)
		req := httptest.NewRequest("POST", "/api/scrape/start", payload)
		rec := httptest.NewRecorder()
		h.Start(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		h := NewScrapeHandler(new(MockCoordinator), nil)

		req := httptest.NewRequest("POST", "/api/scrape/start", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.Start(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestScrapeHandler_Status(t *testing.T) {
	coord := new(MockCoordinator)
	coord.On("Status").Return(scraper.Status{
		IsRunning:         true,
		Progress:          "Processing channel [1/3] news",
		ChannelsProcessed: 0,
		TotalChannels:     3,
		CurrentChannel:    "news",
	})

	h := NewScrapeHandler(coord, nil)

	req := httptest.NewRequest("GET", "/api/scrape/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	status, ok := body["status"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, true, status["is_running"])
	assert.Equal(t, "Processing channel [1/3] news", status["progress"])
	assert.Equal(t, float64(3), status["total_channels"])
}

func TestScrapeHandler_Stats(t *testing.T) {
	stats := new(MockStatsRepository)
	stats.On("Get", mock.Anything).Return(&repository.ArchiveStats{
		TotalMessages: 42,
		TotalChannels: 3,
	}, nil)

	h := NewScrapeHandler(new(MockCoordinator), stats)

	req := httptest.NewRequest("GET", "/api/scrape/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data, ok := body["data"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, float64(42), data["total_messages"])
}
