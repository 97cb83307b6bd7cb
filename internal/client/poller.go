package client

import (
	"context"
	"time"

	"github.com/telibelly/telibelly/internal/scraper"
)

// Poller follows one scrape pass: it fetches the scrape status every couple
// of seconds while the pass runs and stops once a successful response
// reports the pass over. Failed polls never end the loop, they reschedule
// at a slower interval; completion is only ever detected from a good
// response.
const (
	pollInterval  = 2 * time.Second
	retryInterval = 5 * time.Second
	refreshDelay  = 1 * time.Second
)

type Poller struct {
	client    *Client
	onStatus  func(scraper.Status)
	onError   func(error)
	onRefresh func()

	poll    time.Duration
	retry   time.Duration
	refresh time.Duration
}

// NewPoller creates a poller. onStatus receives every successful snapshot
// and onError every failed poll; onRefresh fires exactly once, shortly
// after a pass that touched at least one channel has finished, so the
// caller can re-fetch data the pass changed. Any callback may be nil.
func NewPoller(c *Client, onStatus func(scraper.Status), onError func(error), onRefresh func()) *Poller {
	return &Poller{
		client:    c,
		onStatus:  onStatus,
		onError:   onError,
		onRefresh: onRefresh,
		poll:      pollInterval,
		retry:     retryInterval,
		refresh:   refreshDelay,
	}
}

// Run polls until the pass completes or the context is canceled. The first
// poll fires immediately.
func (p *Poller) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		st, err := p.client.ScrapeStatus(ctx)
		if err != nil {
			if p.onError != nil {
				p.onError(err)
			}
			timer.Reset(p.retry)
			continue
		}

		if p.onStatus != nil {
			p.onStatus(st)
		}
		if !st.IsRunning {
			return p.finish(ctx, st)
		}
		timer.Reset(p.poll)
	}
}

// finish schedules the single post-completion refresh. Passes that touched
// no channel changed nothing, so nothing needs re-fetching.
func (p *Poller) finish(ctx context.Context, st scraper.Status) error {
	if p.onRefresh == nil || st.ChannelsProcessed < 1 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.refresh):
	}
	p.onRefresh()
	return nil
}
