// Package server exposes the allocation engine and catalog over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rodrigosramos/fundeb-mvp/internal/allocation"
	"github.com/rodrigosramos/fundeb-mvp/internal/assistant"
	"github.com/rodrigosramos/fundeb-mvp/internal/catalog"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr      string
	Log       zerolog.Logger
	Catalog   *catalog.Catalog
	Engine    *allocation.Engine
	Assistant *assistant.Client // nil disables /api/chat

	// RealNational computes national denominators from the catalog
	// instead of the demonstration placeholder.
	RealNational bool

	// Registry receives the server metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry

	RequestTimeout time.Duration
}

// Status is served at /api/status.
type Status struct {
	StartedAt      time.Time `json:"started_at"`
	Year           int       `json:"ano"`
	Municipalities int       `json:"municipios"`
	Demo           bool      `json:"modo_demonstracao"`
	Assistant      bool      `json:"assistente_disponivel"`
	Model          string    `json:"modelo,omitempty"`
}

// Server serves the HTTP API.
type Server struct {
	cfg       Config
	log       zerolog.Logger
	router    *chi.Mux
	metrics   *metrics
	registry  *prometheus.Registry
	national  allocation.NationalTotals
	startedAt time.Time
}

// New returns a server with routes and middleware installed.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("server: engine is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		cfg:       cfg,
		log:       cfg.Log.With().Str("component", "server").Logger(),
		router:    chi.NewRouter(),
		metrics:   newMetrics(reg),
		registry:  reg,
		startedAt: time.Now(),
	}
	if cfg.RealNational {
		s.national = cfg.Engine.NationalTotals(cfg.Catalog.All())
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info().
		Str("addr", s.cfg.Addr).
		Int("municipalities", s.cfg.Catalog.Len()).
		Bool("real_national", s.cfg.RealNational).
		Bool("assistant", s.cfg.Assistant != nil).
		Msg("HTTP server listening")

	select {
	case <-ctx.Done():
		s.log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/weights", s.handleWeights)
		r.Get("/ufs", s.handleUFs)
		r.Get("/municipalities", s.handleMunicipalities)
		r.Route("/municipalities/{code}", func(r chi.Router) {
			r.Get("/", s.handleMunicipality)
			r.Get("/allocation", s.handleAllocation)
			r.Post("/allocation", s.handleScenario)
			r.Post("/explain", s.handleExplain)
		})
		r.Post("/chat", s.handleChat)
	})
}

func (s *Server) status() Status {
	st := Status{
		StartedAt:      s.startedAt,
		Year:           s.cfg.Engine.Year(),
		Municipalities: s.cfg.Catalog.Len(),
		Demo:           s.national.VAAT == nil || s.national.VAAF == nil,
		Assistant:      s.cfg.Assistant != nil,
	}
	if s.cfg.Assistant != nil {
		st.Model = s.cfg.Assistant.Model()
	}
	return st
}
