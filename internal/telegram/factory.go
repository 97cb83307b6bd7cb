package telegram

import (
	"context"
	"fmt"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"gorm.io/gorm"

	"github.com/telibelly/telibelly/internal/config"
)

// NewPersistentClient creates a telegram client backed by the application
// database for session storage. When TG_SESSION_STRING is set it takes
// precedence, matching accounts authorized on another machine.
func NewPersistentClient(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error) {
	clientOpts := &gotgproto.ClientOpts{
		DisableCopyright: true,
		InMemory:         false,
	}
	if cfg.TGSessionStr != "" {
		clientOpts.Session = sessionMaker.StringSession(cfg.TGSessionStr)
	} else {
		// SqlSession stores session data and peer cache in the database,
		// so auth key refreshes survive restarts.
		clientOpts.Session = sessionMaker.SqlSession(db.Dialector)
	}

	client, err := gotgproto.NewClient(
		cfg.TGApiID,
		cfg.TGApiHash,
		gotgproto.ClientTypePhone(""), // empty = use session
		clientOpts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	return client, nil
}
