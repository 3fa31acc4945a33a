package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/snnyvrz/books-catalog/internal/config"
)

type Server struct {
	http *http.Server
	cfg  config.ServerConfig
	log  *slog.Logger
}

func New(cfg *config.Config, h http.Handler, log *slog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      h,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
		},
		cfg: cfg.Server,
		log: log,
	}
}

// Run serves until ctx is cancelled, then gives in-flight requests
// ShutdownTimeout to finish.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", "address", s.http.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server", "timeout", s.cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.log.Info("server stopped", "address", s.http.Addr)
	return nil
}
