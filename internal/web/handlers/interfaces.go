package handlers

import (
	"context"

	"github.com/telibelly/telibelly/internal/models"
	"github.com/telibelly/telibelly/internal/repository"
	"github.com/telibelly/telibelly/internal/scraper"
)

// MessagesRepository defines interface for message data access
type MessagesRepository interface {
	List(ctx context.Context, f repository.MessageFilter) ([]models.Message, error)
	MarkRead(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, id int64) (bool, error)
	ToggleTrash(ctx context.Context, id int64) (string, error)
	SetTags(ctx context.Context, id int64, tags string) (string, error)
}

// ChannelsRepository defines interface for channel data access
type ChannelsRepository interface {
	List(ctx context.Context) ([]models.Channel, error)
	UpdateFetchStatus(ctx context.Context, name string, upd repository.FetchStatusUpdate) error
}

// StatsRepository defines interface for archive statistics
type StatsRepository interface {
	Get(ctx context.Context) (*repository.ArchiveStats, error)
}

// ScrapeCoordinator defines interface for scrape control
type ScrapeCoordinator interface {
	Start(ctx context.Context, req scraper.StartRequest) error
	Status() scraper.Status
}

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	Ping() error
}
