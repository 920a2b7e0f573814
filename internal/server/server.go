// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"

	"AlertIntelAPI/internal/config"
	"AlertIntelAPI/internal/handler"
	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/middleware"

	"github.com/gorilla/mux"
)

type Server struct {
	httpServer *http.Server
	router     *mux.Router
	cfg        *config.Config
	log        *logger.Logger
}

func New(cfg *config.Config, log *logger.Logger) *Server {
	router := mux.NewRouter()

	server := &Server{
		router: router,
		cfg:    cfg,
		log:    log,
		httpServer: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}

	return server
}

func (s *Server) RegisterHandlers(
	alertHandler *handler.AlertHandler,
	routingHandler *handler.RoutingHandler,
	healthHandler *handler.HealthHandler,
	wsHandler *handler.WSHandler,
) {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.Use(middleware.RequestLogger(s.log))
	api.Use(middleware.CORS(
		s.cfg.Security.CORSAllowedOrigins,
		s.cfg.Security.CORSAllowedMethods,
		[]string{"Content-Type", "Authorization", s.cfg.Security.APIKeyHeader},
	))
	api.Use(middleware.Recovery(s.log))

	if s.cfg.Security.EnableRateLimit {
		api.Use(middleware.RateLimit(s.cfg.Security.RateLimitPerMinute))
	}

	// Rule mutation requires a signed token; reads stay open for dashboards.
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.JWTAuth(s.cfg.Security.JWTSecret, s.log))

	alertHandler.RegisterRoutes(api)
	routingHandler.RegisterRoutes(api, protected)
	wsHandler.RegisterRoutes(s.router)
	healthHandler.RegisterRoutes(s.router)

	s.log.Info("All handlers registered")
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}
