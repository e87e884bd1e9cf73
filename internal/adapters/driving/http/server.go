package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driving"
)

// ReadinessCheck reports whether one dependency is usable
type ReadinessCheck func(ctx context.Context) error

// Metrics records HTTP traffic and serves the scrape endpoint
type Metrics interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
	TrackInFlight() func()
	Handler() http.Handler
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	authService           driving.AuthService
	searchService         driving.SearchService
	recommendationService driving.RecommendationService

	// Infrastructure
	metrics Metrics
	checks  map[string]ReadinessCheck
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8081,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server. metrics may be nil; checks are run
// by /ready in no particular order.
func NewServer(
	cfg Config,
	authService driving.AuthService,
	searchService driving.SearchService,
	recommendationService driving.RecommendationService,
	metrics Metrics,
	checks map[string]ReadinessCheck,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:                http.NewServeMux(),
		version:               cfg.Version,
		logger:                logger,
		authService:           authService,
		searchService:         searchService,
		recommendationService: recommendationService,
		metrics:               metrics,
		checks:                checks,
	}

	s.setupRoutes()

	var handler http.Handler = s.router
	handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	if metrics != nil {
		handler = NewMetricsMiddleware(metrics).Handler(handler)
	}
	handler = NewLoggingMiddleware(logger).Handler(handler)
	handler = NewRecoveryMiddleware(logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwagger)
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics.Handler())
	}

	// Search endpoints
	s.router.Handle("POST /api/v1/search",
		authMiddleware.Optional(http.HandlerFunc(s.handleSearch)))
	s.router.Handle("POST /api/v1/search/personalized",
		authMiddleware.Authenticate(http.HandlerFunc(s.handlePersonalizedSearch)))
	s.router.HandleFunc("GET /api/v1/search/suggestions", s.handleSuggestions)

	// Recommendation endpoints
	s.router.Handle("POST /api/v1/recommendations",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleRecommendations)))
	s.router.HandleFunc("GET /api/v1/recommendations/trending", s.handleTrending)

	// Engagement notices invalidate cached recommendations
	s.router.Handle("POST /api/v1/engagements",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleEngagement)))
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully within
// shutdownTimeout
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
