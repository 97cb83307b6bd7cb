package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/telibelly/telibelly/internal/config"
)

func TestClient_API_UnauthorizedError(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{}
	manager := NewManager(cfg, db)
	// manager never initialized, so GetClient returns nil

	client := NewClient(manager)

	api, err := client.API()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "telegram client not authorized")
	assert.Nil(t, api)
}

func TestClient_GetStatus_ReflectsManager(t *testing.T) {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	manager := NewManager(&config.Config{}, db)
	client := NewClient(manager)

	assert.Equal(t, StatusInitializing, client.GetStatus())
}

func TestClient_ListChannels_UnauthorizedError(t *testing.T) {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	cfg := &config.Config{}
	manager := NewManager(cfg, db)
	client := NewClient(manager)

	channels, err := client.ListChannels(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "telegram client not authorized")
	assert.Nil(t, channels)
}

func TestClient_CheckFloodWait(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"unrelated error", context.Canceled, 0},
		{"flood wait", errFromString("rpc error code 420: FLOOD_WAIT_15"), 15},
		{"flood wait with suffix", errFromString("FLOOD_WAIT_30 (caused by messages.GetHistory)"), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := client.checkFloodWait(tt.err); got != tt.want {
				t.Errorf("checkFloodWait() = %d, want %d", got, tt.want)
			}
		})
	}
}

type stringError string

func (e stringError) Error() string { return string(e) }

func errFromString(s string) error { return stringError(s) }

func TestParseMessage(t *testing.T) {
	client := &Client{}
	channel := Channel{ID: 100, Title: "News Channel"}

	t.Run("plain text message", func(t *testing.T) {
		msg := client.parseMessage(&tg.Message{
			ID:      7,
			Message: "hello",
			Date:    int(time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC).Unix()),
			Views:   12,
		}, channel)

		require.NotNil(t, msg)
		assert.Equal(t, 7, msg.ID)
		assert.Equal(t, "hello", msg.Text)
		assert.Equal(t, "text", msg.MediaType)
		assert.Equal(t, "News Channel", msg.SenderName)
		assert.Equal(t, 12, msg.Views)
	})

	t.Run("post author preferred over channel title", func(t *testing.T) {
		msg := client.parseMessage(&tg.Message{ID: 8, PostAuthor: "alice"}, channel)
		require.NotNil(t, msg)
		assert.Equal(t, "alice", msg.SenderName)
	})

	t.Run("service messages skipped", func(t *testing.T) {
		msg := client.parseMessage(&tg.MessageService{ID: 9}, channel)
		assert.Nil(t, msg)
	})

	t.Run("links extracted from entities and webpage", func(t *testing.T) {
		msg := client.parseMessage(&tg.Message{
			ID:      10,
			Message: "check this",
			Entities: []tg.MessageEntityClass{
				&tg.MessageEntityTextURL{URL: "https://example.com/a"},
				&tg.MessageEntityBold{},
			},
			Media: &tg.MessageMediaWebPage{
				Webpage: &tg.WebPage{URL: "https://example.com/b"},
			},
		}, channel)

		require.NotNil(t, msg)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, msg.Links)
		assert.Equal(t, "webpage", msg.MediaType)
	})

	t.Run("photo media type", func(t *testing.T) {
		msg := client.parseMessage(&tg.Message{ID: 11, Media: &tg.MessageMediaPhoto{}}, channel)
		require.NotNil(t, msg)
		assert.Equal(t, "photo", msg.MediaType)
	})

	t.Run("video detected inside document", func(t *testing.T) {
		msg := client.parseMessage(&tg.Message{
			ID: 12,
			Media: &tg.MessageMediaDocument{
				Document: &tg.Document{
					Attributes: []tg.DocumentAttributeClass{&tg.DocumentAttributeVideo{}},
				},
			},
		}, channel)
		require.NotNil(t, msg)
		assert.Equal(t, "video", msg.MediaType)
	})
}
