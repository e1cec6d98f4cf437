// Package api serves the dashboard to browsers over HTTP and websockets.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newthinker/stockboard/internal/api/handler/ui"
	"github.com/newthinker/stockboard/internal/api/handler/web"
	"github.com/newthinker/stockboard/internal/api/job"
	"github.com/newthinker/stockboard/internal/api/response"
	"github.com/newthinker/stockboard/internal/dispatch"
	"github.com/newthinker/stockboard/internal/metrics"
)

const (
	jobCapacity = 512
	jobTTL      = 10 * time.Minute
)

// Server represents the HTTP server for the dashboard.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	router     chi.Router
	hub        *ui.Hub
	jobs       *job.Store
	stats      func() map[string]any
	cancel     context.CancelFunc
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	TemplatesDir   string
	MetricsEnabled bool
	MetricsPath    string
}

// Deps are the live components the server exposes.
type Deps struct {
	State   ui.State
	Bus     *dispatch.Bus
	Metrics *metrics.Registry
	Logger  *zap.Logger
	// Stats reports runtime counters for /ui/stats. Optional.
	Stats func() map[string]any
}

// NewServer creates a new HTTP server. The websocket hub starts relaying view
// events immediately and stops on Shutdown.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	ctx, cancel := context.WithCancel(context.Background())

	var recorder ui.ClientRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		router: router,
		hub:    ui.NewHub(deps.State, logger, recorder),
		jobs:   job.NewStore(jobCapacity, jobTTL),
		cancel: cancel,
		stats:  deps.Stats,
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		cancel()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	s.hub.Start(ctx)
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Deps) error {
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.LoggingMiddleware(s.logger))
	if deps.Metrics != nil {
		s.router.Use(metrics.HTTPMiddleware(deps.Metrics))
	}

	webHandler, err := web.NewHandler(cfg.TemplatesDir, deps.State.Snapshot)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}
	uiHandler := ui.NewHandler(deps.State, deps.Bus, s.jobs, s.logger)

	s.router.Get("/", webHandler.Index)
	s.router.Get("/static/*", webHandler.Static)

	s.router.Route("/ui", func(r chi.Router) {
		r.Get("/document", uiHandler.Document)
		r.Get("/commands", uiHandler.Commands)
		r.Post("/commands/{name}", uiHandler.Command)
		r.Get("/jobs/{id}", uiHandler.Job)
		r.Get("/stats", s.handleStats)
		r.Get("/ws", s.hub.ServeWS)
	})

	s.router.Get("/healthz", s.handleHealth)

	if cfg.MetricsEnabled && deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.router.Handle(path, promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	return nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops the websocket hub and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	s.cancel()
	err := s.httpServer.Shutdown(ctx)

	select {
	case <-s.hub.Done():
	case <-ctx.Done():
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{}
	if s.stats != nil {
		stats = s.stats()
	}
	stats["jobs"] = len(s.jobs.List())
	response.JSON(w, http.StatusOK, stats)
}
