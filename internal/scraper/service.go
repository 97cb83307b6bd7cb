package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/telibelly/telibelly/internal/config"
	"github.com/telibelly/telibelly/internal/logger"
	"github.com/telibelly/telibelly/internal/models"
	"github.com/telibelly/telibelly/internal/repository"
)

// ChannelInfo identifies one scrapable channel at the source.
type ChannelInfo struct {
	ID       int64
	Title    string
	Username string
}

// RawMessage is one message as fetched from the source, before it is
// translated and stored.
type RawMessage struct {
	ID         int
	Date       time.Time
	SenderID   int64
	SenderName string
	Text       string
	Links      []string
	MediaType  string
	Views      int
	Forwards   int
}

// Source defines the interface for the message source.
type Source interface {
	ListChannels(ctx context.Context) ([]ChannelInfo, error)
	History(ctx context.Context, ch ChannelInfo, daysBack, limit int) ([]RawMessage, error)
}

// Translator produces an English rendition of a message text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// MessagesAddedEvent is published after a channel pass stores new messages.
type MessagesAddedEvent struct {
	Channel string    `json:"channel"`
	Added   int       `json:"added"`
	At      time.Time `json:"at"`
}

// EventPublisher publishes ingest events.
type EventPublisher interface {
	PublishMessagesAdded(ctx context.Context, event MessagesAddedEvent) error
}

// Service performs the actual ingest work of a scrape pass.
type Service struct {
	source     Source
	messages   *repository.MessagesRepository
	channels   *repository.ChannelsRepository
	translator Translator
	publisher  EventPublisher
	allowlist  *config.ChannelList
	log        *logger.Logger
}

// NewService creates a new ingest service.
// translator and publisher may be nil.
func NewService(
	source Source,
	messages *repository.MessagesRepository,
	channels *repository.ChannelsRepository,
	translator Translator,
	publisher EventPublisher,
	allowlist *config.ChannelList,
	log *logger.Logger,
) *Service {
	return &Service{
		source:     source,
		messages:   messages,
		channels:   channels,
		translator: translator,
		publisher:  publisher,
		allowlist:  allowlist,
		log:        log,
	}
}

// Run fetches every allowed channel in turn. The first channel that fails
// aborts the pass; its fetch status is left as failed so operators can see
// where the pass stopped.
func (s *Service) Run(ctx context.Context, req StartRequest, rep Reporter) error {
	channels, err := s.source.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	var allowed []ChannelInfo
	for _, ch := range channels {
		if s.allowlist.Allows(channelName(ch)) {
			allowed = append(allowed, ch)
		}
	}

	rep.SetTotal(len(allowed))
	s.log.Info().
		Int("total", len(channels)).
		Int("allowed", len(allowed)).
		Msg("resolved channel list")

	for i, ch := range allowed {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scrape cancelled")
			return ctx.Err()
		default:
		}

		name := channelName(ch)
		rep.StartChannel(i+1, name)

		added, err := s.ingestChannel(ctx, ch, name, req)
		if err != nil {
			return fmt.Errorf("channel %s: %w", name, err)
		}

		rep.AddMessages(added)
		rep.FinishChannel()

		if s.publisher != nil && added > 0 {
			event := MessagesAddedEvent{Channel: name, Added: added, At: time.Now()}
			if err := s.publisher.PublishMessagesAdded(ctx, event); err != nil {
				s.log.Warn().Err(err).Str("channel", name).Msg("failed to publish ingest event")
			}
		}
	}

	return nil
}

// ingestChannel fetches and stores one channel's history.
func (s *Service) ingestChannel(ctx context.Context, ch ChannelInfo, name string, req StartRequest) (int, error) {
	if err := s.channels.Ensure(ctx, strconv.FormatInt(ch.ID, 10), name); err != nil {
		return 0, fmt.Errorf("ensure channel: %w", err)
	}

	now := time.Now().Format(models.TimestampFormat)
	processing := models.FetchStatusProcessing
	upd := repository.FetchStatusUpdate{Status: &processing, StartedAt: &now}
	if err := s.channels.UpdateFetchStatus(ctx, name, upd); err != nil {
		return 0, fmt.Errorf("mark processing: %w", err)
	}

	raws, err := s.source.History(ctx, ch, req.DaysBack, req.Limit)
	if err != nil {
		s.markFailed(ctx, name)
		return 0, fmt.Errorf("fetch history: %w", err)
	}

	added := 0
	for _, raw := range raws {
		msg := s.buildMessage(ctx, ch, name, raw)
		created, err := s.messages.Upsert(ctx, msg)
		if err != nil {
			s.markFailed(ctx, name)
			return added, fmt.Errorf("store message %d: %w", raw.ID, err)
		}
		if created {
			added++
		}
	}

	if err := s.channels.AddMessages(ctx, name, added); err != nil {
		return added, fmt.Errorf("bump message count: %w", err)
	}

	done := models.FetchStatusDone
	ended := time.Now().Format(models.TimestampFormat)
	upd = repository.FetchStatusUpdate{Status: &done, EndedAt: &ended}
	if err := s.channels.UpdateFetchStatus(ctx, name, upd); err != nil {
		return added, fmt.Errorf("mark done: %w", err)
	}

	s.log.Info().Str("channel", name).Int("fetched", len(raws)).Int("added", added).Msg("channel ingested")
	return added, nil
}

// buildMessage converts a raw source message to its stored form.
func (s *Service) buildMessage(ctx context.Context, ch ChannelInfo, name string, raw RawMessage) *models.Message {
	channelID := strconv.FormatInt(ch.ID, 10)
	messageID := strconv.Itoa(raw.ID)

	translated := raw.Text
	if s.translator != nil && raw.Text != "" {
		t, err := s.translator.Translate(ctx, raw.Text)
		if err != nil {
			s.log.Warn().Err(err).Str("channel", name).Int("message", raw.ID).Msg("translation failed, keeping original")
		} else {
			translated = t
		}
	}

	return &models.Message{
		ChannelID:      channelID,
		ChannelName:    name,
		MessageID:      messageID,
		GlobalID:       channelID + "_" + messageID,
		DatetimeUTC:    raw.Date.UTC().Format(models.TimestampFormat),
		DatetimeLocal:  raw.Date.Local().Format(models.TimestampFormat),
		SenderID:       strconv.FormatInt(raw.SenderID, 10),
		SenderName:     raw.SenderName,
		Text:           raw.Text,
		TextTranslated: translated,
		Links:          strings.Join(raw.Links, ", "),
		MediaType:      raw.MediaType,
		Views:          raw.Views,
		Forwards:       raw.Forwards,
		MessageHash:    messageHash(channelID, messageID, raw.Text),
	}
}

func (s *Service) markFailed(ctx context.Context, name string) {
	failed := models.FetchStatusFailed
	ended := time.Now().Format(models.TimestampFormat)
	upd := repository.FetchStatusUpdate{Status: &failed, EndedAt: &ended}
	if err := s.channels.UpdateFetchStatus(ctx, name, upd); err != nil {
		s.log.Warn().Err(err).Str("channel", name).Msg("failed to mark channel failed")
	}
}

// channelName prefers the public username, falling back to the title.
func channelName(ch ChannelInfo) string {
	if ch.Username != "" {
		return ch.Username
	}
	return ch.Title
}

func messageHash(channelID, messageID, text string) string {
	sum := sha256.Sum256([]byte(channelID + "|" + messageID + "|" + text))
	return hex.EncodeToString(sum[:16])
}
