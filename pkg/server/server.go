package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"acgs-hq/sentinel/pkg/audit"
	"acgs-hq/sentinel/pkg/config"
	"acgs-hq/sentinel/pkg/constitution"
)

// Server is the enforcement point's HTTP API server.
type Server struct {
	cfg        config.ServerConfig
	decider    Decider
	store      *constitution.Store
	auditStore audit.Store
	registry   *prometheus.Registry
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a server. auditStore and registry may be nil; the
// corresponding routes are then omitted.
func NewServer(
	cfg config.ServerConfig,
	decider Decider,
	store *constitution.Store,
	auditStore audit.Store,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		decider:    decider,
		store:      store,
		auditStore: auditStore,
		registry:   registry,
		logger:     logger.With("component", "server"),
	}
}

// Handler returns the full route and middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/constitutional/validate", NewValidateHandler(s.decider, s.store, s.logger))
	mux.Handle("/healthz", HealthHandler{})
	mux.Handle("/readyz", NewReadyHandler(s.store))
	if s.auditStore != nil {
		mux.Handle("/audit/records", NewAuditHandler(s.auditStore, s.logger))
	}
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	var handler http.Handler = mux
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(s.logger)(handler)
	return handler
}

// Start serves until ctx is cancelled, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", s.cfg.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
