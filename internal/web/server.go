// Package web serves the dashboard REST API and websocket events.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config holds server configuration
type Config struct {
	Port      int
	StaticDir string // optional dashboard assets
}

// Handlers carries the API handlers mounted by the server.
// Field types are interfaces-by-shape via the handlers package.
type Handlers struct {
	Messages interface {
		List(w http.ResponseWriter, r *http.Request)
		MarkRead(w http.ResponseWriter, r *http.Request)
		ToggleLike(w http.ResponseWriter, r *http.Request)
		ToggleTrash(w http.ResponseWriter, r *http.Request)
		SetTags(w http.ResponseWriter, r *http.Request)
	}
	Channels interface {
		List(w http.ResponseWriter, r *http.Request)
		UpdateFetchStatus(w http.ResponseWriter, r *http.Request)
	}
	Stats interface {
		Get(w http.ResponseWriter, r *http.Request)
	}
	Scrape interface {
		Start(w http.ResponseWriter, r *http.Request)
		Status(w http.ResponseWriter, r *http.Request)
		Stats(w http.ResponseWriter, r *http.Request)
	}
	Health interface {
		Health(w http.ResponseWriter, r *http.Request)
	}
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *Config
	listener   net.Listener
	hub        *Hub
}

// NewServer creates a new HTTP server with all routes mounted.
func NewServer(cfg *Config, hub *Hub, h Handlers) *Server {
	srv := &Server{
		router: chi.NewRouter(),
		config: cfg,
		hub:    hub,
	}

	srv.setupMiddleware()
	srv.setupRoutes(h)

	return srv
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
}

func (s *Server) setupRoutes(h Handlers) {
	if s.config.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	if s.hub != nil {
		s.router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ServeWs(s.hub, w, r)
		})
	}

	s.router.Route("/api", func(r chi.Router) {
		if h.Messages != nil {
			r.Get("/messages", h.Messages.List)
			r.Route("/messages/{id}", func(r chi.Router) {
				// PUT per the dashboard, POST kept for curl convenience
				r.Put("/read", h.Messages.MarkRead)
				r.Post("/read", h.Messages.MarkRead)
				r.Put("/like", h.Messages.ToggleLike)
				r.Post("/like", h.Messages.ToggleLike)
				r.Put("/trash", h.Messages.ToggleTrash)
				r.Post("/trash", h.Messages.ToggleTrash)
				r.Put("/tags", h.Messages.SetTags)
				r.Post("/tags", h.Messages.SetTags)
			})
		}

		if h.Channels != nil {
			r.Get("/channels", h.Channels.List)
			r.Put("/channels/{name}/fetch-status", h.Channels.UpdateFetchStatus)
			r.Post("/channels/{name}/fetch-status", h.Channels.UpdateFetchStatus)
		}

		if h.Stats != nil {
			r.Get("/stats", h.Stats.Get)
		}

		if h.Scrape != nil {
			r.Post("/scrape/start", h.Scrape.Start)
			r.Get("/scrape/status", h.Scrape.Status)
			r.Get("/scrape/stats", h.Scrape.Stats)
		}

		if h.Health != nil {
			r.Get("/health", h.Health.Health)
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s.httpServer.Serve(listener)
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// BaseURL returns the server's base URL
func (s *Server) BaseURL() string {
	if s.listener != nil {
		return fmt.Sprintf("http://%s", s.listener.Addr().String())
	}
	return fmt.Sprintf("http://localhost:%d", s.config.Port)
}

// Router exposes the mux, used by httptest in tests.
func (s *Server) Router() http.Handler {
	return s.router
}
