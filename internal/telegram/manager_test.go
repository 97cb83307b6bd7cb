package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/storage"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/telibelly/telibelly/internal/config"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	db.Exec("CREATE TABLE sessions (version integer primary key, data blob)")
	return db
}

func TestManager_StartQR_FactoryError(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.Config{TGApiID: 12345, TGApiHash: "test_hash"}
	m := NewManager(cfg, db)

	var receivedURL string
	m.SetQRClientFactory(func(cfg *config.Config) (*QRAuthClient, error) {
		return nil, errors.New("factory reached")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := m.StartQR(ctx, func(url string) {
		receivedURL = url
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "factory reached")
	assert.Empty(t, receivedURL, "URL callback should not fire if the factory fails")
	assert.False(t, m.IsQRInProgress(), "QR flow should be cleared after a failed start")
}

func TestManager_Init_NoSession_Unauthorized(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.Config{TGApiID: 12345, TGApiHash: "test_hash"}
	m := NewManager(cfg, db)

	m.SetClientFactory(func(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error) {
		t.Fatal("factory must not be called with an empty sessions table")
		return nil, nil
	})

	err := m.Init(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StatusUnauthorized, m.GetStatus())
	assert.False(t, m.IsQRInProgress())
}

func TestManager_Init_FactoryError_Unauthorized(t *testing.T) {
	db := newTestDB(t)
	// Seed a session so the factory is reached
	db.Exec("INSERT INTO sessions (version, data) VALUES (1, ?)", []byte(`{"mock":"data"}`))

	cfg := &config.Config{TGApiID: 12345, TGApiHash: "test_hash"}
	m := NewManager(cfg, db)

	m.SetClientFactory(func(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error) {
		return nil, errors.New("factory failure")
	})

	err := m.Init(context.Background())

	assert.NoError(t, err, "Init should not return error even if factory fails")
	assert.Equal(t, StatusUnauthorized, m.GetStatus(), "Status should be Unauthorized on factory error")
}

func TestManager_GetStatus_Concurrent(t *testing.T) {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	m := NewManager(&config.Config{}, db)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			m.GetStatus()
		}()
	}

	close(start)
	wg.Wait()
}

func TestManager_Stop_Graceful(t *testing.T) {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	m := NewManager(&config.Config{}, db)

	assert.NotPanics(t, func() {
		m.Stop()
	})
}

func TestGotgprotoSession_RoundTrip(t *testing.T) {
	input := &session.Data{
		DC:      2,
		Addr:    "1.2.3.4:443",
		AuthKey: []byte("test-key-32-bytes-long-abc-12345"),
	}

	result, err := gotgprotoSession(input)
	require.NoError(t, err)
	assert.Equal(t, storage.LatestVersion, result.Version)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Data, &parsed))
	assert.Equal(t, float64(2), parsed["DC"])
	assert.Equal(t, "1.2.3.4:443", parsed["Addr"])
}

func TestGotgprotoSession_NilData(t *testing.T) {
	_, err := gotgprotoSession(nil)
	assert.Error(t, err)
}
