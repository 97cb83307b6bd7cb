package client

import (
	"context"
	"time"
)

// reconnectDelay is how long the monitor waits before probing again after a
// failed health check, regardless of what the server last advertised.
const reconnectDelay = 1 * time.Second

// ConnState is a connectivity snapshot pushed to the monitor's callback.
type ConnState struct {
	Connected   bool
	Database    string
	NextCheckIn int // seconds until the next probe
}

// Monitor tracks server connectivity by probing the health endpoint. The
// server dictates the interval between probes; the monitor counts it down in
// one-second ticks so a UI can display the remaining time. While the server
// is unreachable it retries every second.
type Monitor struct {
	client   *Client
	onChange func(ConnState)

	tick time.Duration // one second outside of tests
}

// NewMonitor creates a monitor reporting every state change and countdown
// tick to onChange.
func NewMonitor(c *Client, onChange func(ConnState)) *Monitor {
	return &Monitor{
		client:   c,
		onChange: onChange,
		tick:     time.Second,
	}
}

// Run probes until the context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		hs, err := m.client.Health(ctx)

		var state ConnState
		var wait int
		switch {
		case err != nil:
			wait = int(reconnectDelay / time.Second)
			state = ConnState{Connected: false, NextCheckIn: wait}
		case hs.Status != "healthy":
			// An unhealthy payload is a disconnect. Retry on the short
			// reconnect cadence even if the server advertised a longer wait.
			wait = int(reconnectDelay / time.Second)
			state = ConnState{Connected: false, Database: hs.Database, NextCheckIn: wait}
		default:
			wait = hs.NextCheckInSeconds
			if wait < 1 {
				wait = 1
			}
			state = ConnState{Connected: true, Database: hs.Database, NextCheckIn: wait}
		}
		m.notify(state)

		if err := m.countdown(ctx, state, wait); err != nil {
			return err
		}
	}
}

// countdown sleeps wait seconds, emitting a tick per second so the callback
// sees the remaining time decrease.
func (m *Monitor) countdown(ctx context.Context, state ConnState, wait int) error {
	for remaining := wait; remaining > 0; remaining-- {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.tick):
		}
		state.NextCheckIn = remaining - 1
		if state.NextCheckIn > 0 {
			m.notify(state)
		}
	}
	return nil
}

func (m *Monitor) notify(state ConnState) {
	if m.onChange != nil {
		m.onChange(state)
	}
}
