// Package publisher emits ingest events to NATS for downstream consumers.
package publisher

import (
	"context"
	"fmt"

	"github.com/telibelly/telibelly/internal/scraper"
)

// subjects
const (
	SubjectMessagesAdded = "messages.added"
)

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(ctx context.Context, subject string, data any) error
}

// NATSPublisher implements scraper.EventPublisher
type NATSPublisher struct {
	client NATSClient
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(client NATSClient) *NATSPublisher {
	return &NATSPublisher{client: client}
}

// PublishMessagesAdded publishes a channel ingest event
func (p *NATSPublisher) PublishMessagesAdded(ctx context.Context, event scraper.MessagesAddedEvent) error {
	if err := p.client.Publish(ctx, SubjectMessagesAdded, event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
