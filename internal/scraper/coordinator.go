// Package scraper coordinates scrape passes over the configured channels.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/telibelly/telibelly/internal/logger"
	"github.com/telibelly/telibelly/internal/models"
)

// errors
var (
	ErrAlreadyRunning = errors.New("scraping is already in progress")
)

// Status is a snapshot of the scrape state as reported to clients.
type Status struct {
	IsRunning         bool   `json:"is_running"`
	StartTime         string `json:"start_time,omitempty"`
	Progress          string `json:"progress"`
	ChannelsProcessed int    `json:"channels_processed"`
	TotalChannels     int    `json:"total_channels"`
	MessagesAdded     int    `json:"messages_added"`
	CurrentChannel    string `json:"current_channel,omitempty"`
}

// Ingestor runs one scrape pass, reporting progress as it goes.
type Ingestor interface {
	Run(ctx context.Context, req StartRequest, rep Reporter) error
}

// Reporter receives progress updates during a pass.
type Reporter interface {
	SetTotal(total int)
	StartChannel(index int, name string)
	AddMessages(count int)
	FinishChannel()
}

// Notifier receives scrape lifecycle events. All methods must be
// safe to call from the scrape goroutine.
type Notifier interface {
	ScrapeStarted(st Status)
	ScrapeProgress(st Status)
	ScrapeEnded(st Status)
}

// Coordinator manages scrape passes
// ensures only one pass runs at a time
// thread-safe
type Coordinator struct {
	mu       sync.Mutex
	running  bool
	cancelFn context.CancelFunc
	status   Status
	ingestor Ingestor
	notifier Notifier
	log      *logger.Logger
}

// NewCoordinator creates a new scrape coordinator.
// notifier may be nil.
func NewCoordinator(ingestor Ingestor, notifier Notifier, log *logger.Logger) *Coordinator {
	return &Coordinator{
		ingestor: ingestor,
		notifier: notifier,
		log:      log,
	}
}

// Start begins a scrape pass in the background.
// Returns ErrAlreadyRunning if a pass is already in flight.
func (c *Coordinator) Start(_ context.Context, req StartRequest) error {
	c.mu.Lock()

	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}

	// IMPORTANT: Use background context, NOT the HTTP request context!
	// The HTTP request context gets canceled when the handler returns,
	// which would immediately cancel our scrape pass.
	scrapeCtx, cancel := context.WithCancel(context.Background())
	c.cancelFn = cancel

	c.running = true
	c.status = Status{
		IsRunning: true,
		StartTime: time.Now().Format(models.TimestampFormat),
		Progress:  "Initializing...",
	}
	started := c.status
	jobID := uuid.New()
	c.mu.Unlock()

	c.log.Info().
		Str("job_id", jobID.String()).
		Int("days_back", req.DaysBack).
		Int("limit", req.Limit).
		Msg("starting scrape pass")

	if c.notifier != nil {
		c.notifier.ScrapeStarted(started)
	}

	go c.run(scrapeCtx, jobID, req)

	return nil
}

// Stop cancels the current pass
// safe to call when nothing is running
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelFn != nil {
		c.cancelFn()
		c.cancelFn = nil
	}
}

// Status returns a copy of the current scrape state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// run executes the pass
// this is called in a goroutine
func (c *Coordinator) run(ctx context.Context, jobID uuid.UUID, req StartRequest) {
	err := c.ingestor.Run(ctx, req, c)

	c.mu.Lock()
	c.running = false
	c.cancelFn = nil
	c.status.IsRunning = false
	c.status.CurrentChannel = ""
	if err != nil {
		c.status.Progress = "Error: " + err.Error()
	} else {
		c.status.Progress = "Completed"
	}
	ended := c.status
	c.mu.Unlock()

	if err != nil {
		c.log.Error().Err(err).Str("job_id", jobID.String()).Msg("scrape pass failed")
	} else {
		c.log.Info().
			Str("job_id", jobID.String()).
			Int("channels", ended.ChannelsProcessed).
			Int("messages_added", ended.MessagesAdded).
			Msg("scrape pass completed")
	}

	if c.notifier != nil {
		c.notifier.ScrapeEnded(ended)
	}
}

// SetTotal implements Reporter.
func (c *Coordinator) SetTotal(total int) {
	c.mu.Lock()
	c.status.TotalChannels = total
	st := c.status
	c.mu.Unlock()
	c.progress(st)
}

// StartChannel implements Reporter.
func (c *Coordinator) StartChannel(index int, name string) {
	c.mu.Lock()
	c.status.CurrentChannel = name
	c.status.Progress = fmt.Sprintf("Processing channel [%d/%d] %s", index, c.status.TotalChannels, name)
	st := c.status
	c.mu.Unlock()
	c.progress(st)
}

// AddMessages implements Reporter.
func (c *Coordinator) AddMessages(count int) {
	c.mu.Lock()
	c.status.MessagesAdded += count
	st := c.status
	c.mu.Unlock()
	c.progress(st)
}

// FinishChannel implements Reporter.
func (c *Coordinator) FinishChannel() {
	c.mu.Lock()
	c.status.ChannelsProcessed++
	if c.status.ChannelsProcessed > c.status.TotalChannels {
		c.status.ChannelsProcessed = c.status.TotalChannels
	}
	st := c.status
	c.mu.Unlock()
	c.progress(st)
}

func (c *Coordinator) progress(st Status) {
	if c.notifier != nil {
		c.notifier.ScrapeProgress(st)
	}
}
