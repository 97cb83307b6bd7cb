package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/telibelly/telibelly/internal/models"
	"github.com/telibelly/telibelly/internal/repository"
)

// MockChannelsRepository is a mock for ChannelsRepository
type MockChannelsRepository struct {
	mock.Mock
}

func (m *MockChannelsRepository) List(ctx context.Context) ([]models.Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Channel), args.Error(1)
}

func (m *MockChannelsRepository) UpdateFetchStatus(ctx context.Context, name string, upd repository.FetchStatusUpdate) error {
	args := m.Called(ctx, name, upd)
	return args.Error(0)
}

func channelsRouter(h *ChannelsHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/channels", h.List)
	r.Put("/api/channels/{name}/fetch-status", h.UpdateFetchStatus)
	return r
}

func TestChannelsHandler_List(t *testing.T) {
	mockRepo := new(MockChannelsRepository)
	mockRepo.On("List", mock.Anything).Return([]models.Channel{
		{ChannelName: "news", TotalMessages: 10},
	}, nil)

	router := channelsRouter(NewChannelsHandler(mockRepo))

	req := httptest.NewRequest("GET", "/api/channels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
}

func TestChannelsHandler_UpdateFetchStatus(t *testing.T) {
	t.Run("processing sets started timestamp", func(t *testing.T) {
		mockRepo := new(MockChannelsRepository)
		mockRepo.On("UpdateFetchStatus", mock.Anything, "news", mock.MatchedBy(func(u repository.FetchStatusUpdate) bool {
			return u.Status != nil && *u.Status == models.FetchStatusProcessing &&
				u.StartedAt != nil && u.EndedAt == nil
		})).Return(nil)

		router := channelsRouter(NewChannelsHandler(mockRepo))

		payload := bytes.NewBufferString(`{"status": "processing"}`)
		req := httptest.NewRequest("PUT", "/api/channels/news/fetch-status", payload)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("done sets ended timestamp", func(t *testing.T) {
		mockRepo := new(MockChannelsRepository)
		mockRepo.On("UpdateFetchStatus", mock.Anything, "news", mock.MatchedBy(func(u repository.FetchStatusUpdate) bool {
			return u.Status != nil && *u.Status == models.FetchStatusDone &&
				u.StartedAt == nil && u.EndedAt != nil
		})).Return(nil)

		router := channelsRouter(NewChannelsHandler(mockRepo))

		payload := bytes.NewBufferString(`{"status": "done"}`)
		req := httptest.NewRequest("PUT", "/api/channels/news/fetch-status", payload)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		router := channelsRouter(NewChannelsHandler(new(MockChannelsRepository)))

		payload := bytes.NewBufferString(`{"status": "sideways"}`)
		req := httptest.NewRequest("PUT", "/api/channels/news/fetch-status", payload)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown channel is 404", func(t *testing.T) {
		mockRepo := new(MockChannelsRepository)
		mockRepo.On("UpdateFetchStatus", mock.Anything, "ghost", mock.Anything).
			Return(repository.ErrChannelNotFound)

		router := channelsRouter(NewChannelsHandler(mockRepo))

		payload := bytes.NewBufferString(`{"status": "done"}`)
		req := httptest.NewRequest("PUT", "/api/channels/ghost/fetch-status", payload)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
