// Package telegram provides Telegram MTProto client wrapper.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/celestix/gotgproto"
	"github.com/gotd/td/tg"

	"github.com/telibelly/telibelly/internal/logger"
)

// Client wraps gotgproto client and provides high-level telegram operations.
// It uses the Manager to access the underlying protocol client, so it stays
// usable across re-authentication.
type Client struct {
	manager     *Manager
	rateLimiter *RateLimiter
	log         *logger.Logger
}

// NewClient creates a new telegram client wrapper using the Manager.
func NewClient(manager *Manager) *Client {
	return &Client{
		manager:     manager,
		rateLimiter: DefaultRateLimiter(),
		log:         logger.Get(),
	}
}

// Close stops the client via the manager.
func (c *Client) Close() {
	if c.manager != nil {
		c.manager.Stop()
	}
}

// GetStatus returns the current status of the telegram client.
func (c *Client) GetStatus() Status {
	return c.manager.GetStatus()
}

// getProto returns the current protocol client if available.
func (c *Client) getProto() (*gotgproto.Client, error) {
	proto := c.manager.GetClient()
	if proto == nil {
		return nil, fmt.Errorf("telegram client not authorized")
	}
	return proto, nil
}

// API returns the raw tg.Client for direct API calls.
func (c *Client) API() (*tg.Client, error) {
	proto, err := c.getProto()
	if err != nil {
		return nil, err
	}
	return proto.API(), nil
}

// ListChannels returns the broadcast channels the account is subscribed to.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	api, err := c.API()
	if err != nil {
		return nil, err
	}

	c.log.Debug().Msg("telegram: fetching dialogs")
	dialogs, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      100,
	})
	if err != nil {
		if wait := c.checkFloodWait(err); wait > 0 {
			c.log.Warn().Int("wait_seconds", wait).Msg("telegram: FLOOD_WAIT detected, updating rate limiter")
			c.rateLimiter.SetFloodWait(wait)
		}
		return nil, fmt.Errorf("get dialogs: %w", err)
	}

	var chats []tg.ChatClass
	switch d := dialogs.(type) {
	case *tg.MessagesDialogs:
		chats = d.Chats
	case *tg.MessagesDialogsSlice:
		chats = d.Chats
	default:
		return nil, fmt.Errorf("unexpected dialogs type %T", dialogs)
	}

	var channels []Channel
	for _, chat := range chats {
		ch, ok := chat.(*tg.Channel)
		if !ok {
			continue
		}
		// only broadcast channels; groups and left channels are skipped
		if !ch.Broadcast || ch.Left {
			continue
		}
		channels = append(channels, Channel{
			ID:         ch.ID,
			AccessHash: ch.AccessHash,
			Username:   ch.Username,
			Title:      ch.Title,
		})
	}

	c.log.Info().Int("channels", len(channels)).Msg("telegram: resolved broadcast channels")
	return channels, nil
}

// GetHistory fetches channel messages newer than since, up to limit.
// Telegram returns history newest first, so paging walks backwards until
// the cutoff date or the limit is reached.
func (c *Client) GetHistory(ctx context.Context, channel Channel, since time.Time, limit int) ([]Message, error) {
	var out []Message
	offsetID := 0

	for len(out) < limit {
		batchSize := limit - len(out)
		if batchSize > 100 {
			batchSize = 100 // telegram api limit
		}

		batch, err := c.getHistoryPage(ctx, channel, offsetID, batchSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		reachedCutoff := false
		for _, msg := range batch {
			if msg.Date.Before(since) {
				reachedCutoff = true
				break
			}
			out = append(out, msg)
		}
		if reachedCutoff || len(batch) < batchSize {
			break
		}

		offsetID = batch[len(batch)-1].ID
	}

	return out, nil
}

// getHistoryPage fetches a single page of channel history.
func (c *Client) getHistoryPage(ctx context.Context, channel Channel, offsetID, limit int) ([]Message, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug().Int64("channel_id", channel.ID).Int("offset_id", offsetID).Int("limit", limit).Msg("telegram: calling MessagesGetHistory API")
	api, err := c.API()
	if err != nil {
		return nil, err
	}
	history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  channel.ID,
			AccessHash: channel.AccessHash,
		},
		OffsetID: offsetID,
		Limit:    limit,
	})
	if err != nil {
		if wait := c.checkFloodWait(err); wait > 0 {
			c.log.Warn().Int("wait_seconds", wait).Msg("telegram: FLOOD_WAIT detected in GetHistory, updating rate limiter")
			c.rateLimiter.SetFloodWait(wait)
		}
		return nil, fmt.Errorf("get history: %w", err)
	}

	return c.extractMessages(history, channel), nil
}

// extractMessages converts telegram message response to our Message type
func (c *Client) extractMessages(messagesClass tg.MessagesMessagesClass, channel Channel) []Message {
	var messages []Message

	switch h := messagesClass.(type) {
	case *tg.MessagesChannelMessages:
		for _, msg := range h.Messages {
			if m := c.parseMessage(msg, channel); m != nil {
				messages = append(messages, *m)
			}
		}
	case *tg.MessagesMessages:
		for _, msg := range h.Messages {
			if m := c.parseMessage(msg, channel); m != nil {
				messages = append(messages, *m)
			}
		}
	}

	return messages
}

// parseMessage converts a single telegram message to our Message type
func (c *Client) parseMessage(msg tg.MessageClass, channel Channel) *Message {
	m, ok := msg.(*tg.Message)
	if !ok {
		return nil
	}

	var senderID int64
	if m.FromID != nil {
		if peer, ok := m.FromID.(*tg.PeerUser); ok {
			senderID = peer.UserID
		}
	}

	senderName := m.PostAuthor
	if senderName == "" {
		senderName = channel.Title
	}

	return &Message{
		ID:         m.ID,
		ChannelID:  channel.ID,
		Text:       m.Message,
		Date:       time.Unix(int64(m.Date), 0),
		SenderID:   senderID,
		SenderName: senderName,
		Links:      extractLinks(m),
		MediaType:  mediaType(m.Media),
		Views:      m.Views,
		Forwards:   m.Forwards,
	}
}

// extractLinks collects urls from text entities and webpage previews.
func extractLinks(m *tg.Message) []string {
	var links []string
	seen := map[string]bool{}

	add := func(url string) {
		if url != "" && !seen[url] {
			seen[url] = true
			links = append(links, url)
		}
	}

	for _, entity := range m.Entities {
		if e, ok := entity.(*tg.MessageEntityTextURL); ok {
			add(e.URL)
		}
	}

	if media, ok := m.Media.(*tg.MessageMediaWebPage); ok {
		if page, ok := media.Webpage.(*tg.WebPage); ok {
			add(page.URL)
		}
	}

	return links
}

// mediaType maps telegram media classes to the stored media type label.
func mediaType(media tg.MessageMediaClass) string {
	switch m := media.(type) {
	case nil:
		return "text"
	case *tg.MessageMediaPhoto:
		return "photo"
	case *tg.MessageMediaWebPage:
		return "webpage"
	case *tg.MessageMediaDocument:
		if doc, ok := m.Document.(*tg.Document); ok {
			for _, attr := range doc.Attributes {
				if _, ok := attr.(*tg.DocumentAttributeVideo); ok {
					return "video"
				}
			}
		}
		return "document"
	default:
		return "other"
	}
}

// checkFloodWait checks if error is a FLOOD_WAIT error and returns wait seconds
func (c *Client) checkFloodWait(err error) int {
	if err == nil {
		return 0
	}

	// gotd errors are usually wrapped, the error string is the most
	// reliable signal without deep coupling to gotd's FloodWait type
	str := err.Error()
	if strings.Contains(str, "FLOOD_WAIT_") {
		var seconds int
		parts := strings.Split(str, "FLOOD_WAIT_")
		if len(parts) > 1 {
			numStr := strings.TrimSpace(parts[1])
			_, _ = fmt.Sscanf(numStr, "%d", &seconds)
			return seconds
		}
	}
	return 0
}
