// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	handler "github.com/newthinker/finadict/internal/api/handler/api"
	"github.com/newthinker/finadict/internal/api/middleware"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/newthinker/finadict/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for finadict
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host   string
	Port   int
	APIKey string
	// RequestTimeout sizes the write deadline. Request contexts are not
	// cancelled by it, so a slow model fit runs to completion and only a
	// disconnecting client aborts it.
	RequestTimeout time.Duration
	MetricsPath    string
}

// Dependencies holds the components the handlers need
type Dependencies struct {
	Predictor handler.Predictor
	Intervals *interval.Table
	// Metrics is optional; nil disables HTTP metrics and the scrape endpoint
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Predictor == nil {
		return nil, fmt.Errorf("predictor is required")
	}
	if deps.Intervals == nil {
		deps.Intervals = interval.NewTable(interval.DefaultLimits)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.RequestTimeout + 15*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	predictions := handler.NewPredictionHandler(deps.Predictor, s.logger.Named("predictions"))
	intervals := handler.NewIntervalHandler(deps.Intervals)

	common := []func(http.Handler) http.Handler{metrics.LoggingMiddleware(s.logger)}
	if deps.Metrics != nil {
		common = append(common, metrics.HTTPMiddleware(deps.Metrics))
	}
	protected := append(append([]func(http.Handler) http.Handler{}, common...),
		middleware.APIKeyAuth(cfg.APIKey),
	)

	s.mux.Handle("/api/health", middleware.Chain(http.HandlerFunc(s.handleHealth), common...))

	s.mux.Handle("/api/v1/intervals", middleware.Chain(http.HandlerFunc(intervals.List), protected...))
	s.mux.Handle("/api/v1/predictions", middleware.Chain(http.HandlerFunc(predictions.Predict), protected...))
	s.mux.Handle("/api/v1/predictions/export", middleware.Chain(http.HandlerFunc(predictions.Export), protected...))

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle(path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler exposes the routed handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
