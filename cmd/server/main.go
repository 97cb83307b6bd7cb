package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/telibelly/telibelly/internal/config"
	"github.com/telibelly/telibelly/internal/database"
	"github.com/telibelly/telibelly/internal/logger"
	"github.com/telibelly/telibelly/internal/nats"
	"github.com/telibelly/telibelly/internal/publisher"
	"github.com/telibelly/telibelly/internal/repository"
	"github.com/telibelly/telibelly/internal/scraper"
	"github.com/telibelly/telibelly/internal/telegram"
	"github.com/telibelly/telibelly/internal/translator"
	"github.com/telibelly/telibelly/internal/web"
	"github.com/telibelly/telibelly/internal/web/handlers"
)

func main() {
	_ = godotenv.Load()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting archive & web service")

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Open the archive database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	// 5. Connect to NATS (optional, events are best-effort)
	var pub scraper.EventPublisher
	if cfg.NatsURL != "" {
		nc, err := nats.New(ctx, cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
		} else {
			defer nc.Close()
			if err := nc.EnsureStream(ctx, "TELIBELLY", []string{"messages.>"}); err != nil {
				log.Warn().Err(err).Msg("failed to ensure nats stream")
			}
			pub = publisher.NewNATSPublisher(nc)
		}
	}

	// 6. Initialize repositories
	messagesRepo := repository.NewMessagesRepository(db.GORM)
	channelsRepo := repository.NewChannelsRepository(db.GORM)
	statsRepo := repository.NewStatsRepository(db.GORM)

	// 7. Initialize telegram manager
	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		log.Fatal().Msg("TG_API_ID and TG_API_HASH are required")
	}

	tgManager := telegram.NewManager(cfg, db.GORM)
	if err := tgManager.Init(ctx); err != nil {
		log.Error().Err(err).Msg("telegram manager init failed")
		// keep running, status stays unauthorized/error until tg-auth is used
	}
	tgClient := telegram.NewClient(tgManager)
	defer tgClient.Close()

	// 8. Optional translator
	var tr scraper.Translator
	if cfg.TranslateAPIKey != "" {
		tr = translator.NewClient(translator.Config{
			BaseURL: cfg.TranslateBaseURL,
			Model:   cfg.TranslateModel,
			APIKey:  cfg.TranslateAPIKey,
		})
	} else {
		log.Info().Msg("no translator api key, translation disabled")
	}

	// 9. Channel allowlist
	allowlist, err := config.LoadChannelList(cfg.ChannelsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.ChannelsFile).Msg("failed to load channel list")
	}

	// 10. WebSocket hub and scrape notifier
	hub := web.NewHub()
	go hub.Run()
	notifier := web.NewScrapeNotifier(hub)

	// 11. Scrape service and coordinator
	source := &telegramSource{client: tgClient}
	svc := scraper.NewService(source, messagesRepo, channelsRepo, tr, pub, allowlist, log)
	coordinator := scraper.NewCoordinator(svc, notifier, log)

	// 12. Web handlers and server
	h := web.Handlers{
		Messages: handlers.NewMessagesHandler(messagesRepo, hub),
		Channels: handlers.NewChannelsHandler(channelsRepo),
		Stats:    handlers.NewStatsHandler(statsRepo),
		Scrape:   handlers.NewScrapeHandler(coordinator, statsRepo),
		Health:   handlers.NewHealthHandler(db),
	}

	webCfg := &web.Config{
		Port:      cfg.HTTPPort,
		StaticDir: cfg.StaticDir,
	}
	server := web.NewServer(webCfg, hub, h)

	log.Info().Int("port", cfg.HTTPPort).Msg("starting web server")
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// 13. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down services...")

	coordinator.Stop()
	tgManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("shutdown complete")
}

// telegramSource adapts the telegram client to the scraper's source
// interface. It remembers the channels returned by the last listing so
// history calls can reuse their access hashes.
type telegramSource struct {
	client *telegram.Client

	mu    sync.Mutex
	known map[int64]telegram.Channel
}

func (s *telegramSource) ListChannels(ctx context.Context) ([]scraper.ChannelInfo, error) {
	channels, err := s.client.ListChannels(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.known = make(map[int64]telegram.Channel, len(channels))
	for _, ch := range channels {
		s.known[ch.ID] = ch
	}
	s.mu.Unlock()

	infos := make([]scraper.ChannelInfo, 0, len(channels))
	for _, ch := range channels {
		infos = append(infos, scraper.ChannelInfo{
			ID:       ch.ID,
			Title:    ch.Title,
			Username: ch.Username,
		})
	}
	return infos, nil
}

func (s *telegramSource) History(ctx context.Context, ch scraper.ChannelInfo, daysBack, limit int) ([]scraper.RawMessage, error) {
	s.mu.Lock()
	full, ok := s.known[ch.ID]
	s.mu.Unlock()
	if !ok {
		full = telegram.Channel{ID: ch.ID, Username: ch.Username, Title: ch.Title}
	}

	since := time.Now().AddDate(0, 0, -daysBack)
	messages, err := s.client.GetHistory(ctx, full, since, limit)
	if err != nil {
		return nil, err
	}

	raw := make([]scraper.RawMessage, 0, len(messages))
	for _, msg := range messages {
		raw = append(raw, scraper.RawMessage{
			ID:         msg.ID,
			Date:       msg.Date,
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
			Text:       msg.Text,
			Links:      msg.Links,
			MediaType:  msg.MediaType,
			Views:      msg.Views,
			Forwards:   msg.Forwards,
		})
	}
	return raw, nil
}
