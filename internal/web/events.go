package web

import (
	"encoding/json"

	"github.com/telibelly/telibelly/internal/scraper"
)

// WebSocket event types
const (
	EventScrapeStart    = "scrape.start"
	EventScrapeProgress = "scrape.progress"
	EventScrapeEnd      = "scrape.end"
	EventMessageUpdated = "message.updated"
)

// WSEvent represents a structured WebSocket message
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// MessageUpdatedPayload is the payload of EventMessageUpdated, sent when a
// flag or tag changes so other open dashboards can refresh the row.
type MessageUpdatedPayload struct {
	MessageID int64  `json:"message_id"`
	Field     string `json:"field"`
}

// MessageUpdatedEvent creates a JSON message for flag/tag changes.
func MessageUpdatedEvent(messageID int64, field string) []byte {
	b, _ := json.Marshal(WSEvent{
		Type:    EventMessageUpdated,
		Payload: MessageUpdatedPayload{MessageID: messageID, Field: field},
	})
	return b
}

// ScrapeNotifier forwards scrape lifecycle events to websocket clients.
type ScrapeNotifier struct {
	hub *Hub
}

// NewScrapeNotifier creates a notifier backed by the hub.
func NewScrapeNotifier(hub *Hub) *ScrapeNotifier {
	return &ScrapeNotifier{hub: hub}
}

// ScrapeStarted implements scraper.Notifier.
func (n *ScrapeNotifier) ScrapeStarted(st scraper.Status) {
	n.send(EventScrapeStart, st)
}

// ScrapeProgress implements scraper.Notifier.
func (n *ScrapeNotifier) ScrapeProgress(st scraper.Status) {
	n.send(EventScrapeProgress, st)
}

// ScrapeEnded implements scraper.Notifier.
func (n *ScrapeNotifier) ScrapeEnded(st scraper.Status) {
	n.send(EventScrapeEnd, st)
}

func (n *ScrapeNotifier) send(eventType string, st scraper.Status) {
	b, _ := json.Marshal(WSEvent{Type: eventType, Payload: st})
	n.hub.Broadcast(b)
}
