package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/celestix/gotgproto/storage"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"

	"github.com/telibelly/telibelly/internal/config"
)

// QRAuthClient is a throwaway raw gotd client used to complete one QR
// login. It keeps its session in memory; the manager persists the captured
// session afterwards. gotgproto's own NewClient is unsuitable here because
// it falls back to interactive terminal auth.
type QRAuthClient struct {
	client     *telegram.Client
	dispatcher tg.UpdateDispatcher
	storage    *session.StorageMemory
}

// NewQRAuthClient creates a QR login client from the api credentials in cfg.
func NewQRAuthClient(cfg *config.Config) (*QRAuthClient, error) {
	q := &QRAuthClient{
		dispatcher: tg.NewUpdateDispatcher(),
		storage:    &session.StorageMemory{},
	}
	q.client = telegram.NewClient(cfg.TGApiID, cfg.TGApiHash, telegram.Options{
		SessionStorage: q.storage,
		UpdateHandler:  &q.dispatcher,
	})
	return q, nil
}

// Login runs the QR exchange until the user confirms on another device,
// then returns the resulting session data. onToken is called for every
// token the server issues (tokens rotate while the code sits unscanned).
func (q *QRAuthClient) Login(ctx context.Context, onToken func(url string)) (*session.Data, error) {
	var data *session.Data

	err := q.client.Run(ctx, func(ctx context.Context) error {
		loggedIn := qrlogin.OnLoginToken(&q.dispatcher)
		_, err := q.client.QR().Auth(ctx, loggedIn, func(_ context.Context, token qrlogin.Token) error {
			onToken(token.URL())
			return nil
		})
		if err != nil {
			return err
		}

		loader := session.Loader{Storage: q.storage}
		data, err = loader.Load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("no session data after login")
	}
	return data, nil
}

// gotgprotoSession wraps raw gotd session data in the record gotgproto's
// sql storage reads, so a QR-obtained session survives restarts.
func gotgprotoSession(data *session.Data) (*storage.Session, error) {
	if data == nil {
		return nil, fmt.Errorf("session data is nil")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal session data: %w", err)
	}
	return &storage.Session{Version: storage.LatestVersion, Data: raw}, nil
}
