// Package server exposes subtitle parsing and quote alignment over a
// small HTTP API with Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"quoteclip/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires the API routes. updateGauges runs before each
// metrics scrape to refresh gauge values and may be nil.
func NewRouter(h *Handler, m *Metrics, updateGauges func()) *chi.Mux {
	r := chi.NewRouter()
	if m != nil {
		r.Use(RequestMiddleware(m))
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			m.Handler(updateGauges).ServeHTTP(w, req)
		})
	}
	r.Get("/healthz", h.Health)
	r.Post("/v1/parse", h.Parse)
	r.Post("/v1/align", h.Align)
	return r
}

// Run serves the API until ctx is canceled, then drains connections
// for up to ten seconds.
func Run(ctx context.Context, bind string, handler http.Handler, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &http.Server{Addr: bind, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	logger.Infow("server started", "bind", bind)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infow("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
