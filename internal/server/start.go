package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Start runs the HTTP server until ctx is canceled, then shuts it down
// within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", "addr", s.Cfg.Addr())
		if err := s.E.Start(s.Cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Cfg.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops accepting requests, then shuts modules down in reverse
// boot order.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	errs := []error{}
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	for _, m := range slices.Backward(s.modules) {
		if err := m.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("module %s: %w", m.Name(), err))
		}
	}
	return errors.Join(errs...)
}
