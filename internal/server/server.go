package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/therealutkarshpriyadarshi/logview/internal/logging"
)

// Server exposes the metrics registry over HTTP
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *logging.Logger
	listener   net.Listener
}

// Config holds server configuration
type Config struct {
	Address  string
	Path     string
	Registry *prometheus.Registry
	Logger   *logging.Logger
}

// New creates a new server
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("metrics registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(
		cfg.Registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))

	return &Server{
		handler: mux,
		logger:  cfg.Logger.WithComponent("server"),
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the HTTP handler serving the metrics path
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once Start has succeeded
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("metrics server error: %w", err)
	}
	s.listener = ln

	s.logger.Info().
		Str("address", ln.Addr().String()).
		Msg("Starting metrics server")

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down metrics server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down metrics server")
		return err
	}
	return nil
}
