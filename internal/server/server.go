// Package server wraps the http.Server lifecycle: start, signal-triggered
// graceful shutdown, and a bounded force-close fallback, generalizing the
// teacher's internal/server package.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/config"
)

// Server wraps an http.Server with FederationServer's configured timeouts.
type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	logger     zerolog.Logger
}

// New builds a Server bound to ":"+cfg.Server.Port.
func New(cfg *config.Config, handler http.Handler, logger zerolog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server and blocks until a SIGINT/SIGTERM triggers a
// graceful shutdown, or the server itself fails.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		s.logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("graceful shutdown failed, forcing close")
			if err := s.httpServer.Close(); err != nil {
				return fmt.Errorf("force close failed: %w", err)
			}
		}
		s.logger.Info().Msg("server shutdown complete")
		return nil
	}
}
