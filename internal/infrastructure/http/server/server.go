// Package server provides the JSON API server
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/menusense/optimizer/internal/infrastructure/config"
	"github.com/menusense/optimizer/internal/infrastructure/http/handlers"
	"github.com/menusense/optimizer/internal/infrastructure/http/middleware"
	"github.com/menusense/optimizer/internal/infrastructure/monitoring"
	"github.com/menusense/optimizer/pkg/healthcheck"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	handlers *handlers.APIHandlers
	health   *healthcheck.HealthCheck
	metrics  *monitoring.MetricsCollector
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates the API server. metrics may be nil.
func NewServer(
	cfg *config.Config,
	apiHandlers *handlers.APIHandlers,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
	logger *zap.Logger,
) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger.Named("http"),
		handlers: apiHandlers,
		health:   health,
		metrics:  metrics,
	}

	s.router = s.setupRouter()

	s.server = &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           otelhttp.NewHandler(s.router, "menusense-api"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}
	r.NotFound(s.handlers.NotFound)

	r.Get(s.config.Monitoring.HealthCheckPath, s.health.Handler())
	r.Get(s.config.Monitoring.HealthCheckPath+"/live", s.health.LivenessHandler())
	if s.metrics != nil && s.config.Monitoring.MetricsEnabled {
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.JSONOnly())
		r.Use(chimiddleware.Timeout(s.config.Server.WriteTimeout))

		r.Route("/restaurants/{id}", func(r chi.Router) {
			r.Post("/optimizations", s.handlers.OptimizeMenu)
			r.Post("/suggestions", s.handlers.GenerateSuggestions)
			r.Post("/taste-profiles", s.handlers.AnalyzeTasteProfiles)
			r.Post("/items/{itemId}/enhancement", s.handlers.EnhanceItem)
			r.Get("/pending", s.handlers.ListPending)
			r.Get("/scores", s.handlers.ScoreRestaurant)
		})

		r.Post("/optimizations/{itemId}/review", s.handlers.ReviewOptimization)
		r.Post("/suggestions/{id}/review", s.handlers.ReviewSuggestion)
		r.Post("/enhancements/{itemId}/review", s.handlers.ReviewEnhancement)
	})

	return r
}

// Handler returns the routed handler without the tracing wrapper
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on an existing listener
func (s *Server) Serve(ln net.Listener) error {
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
