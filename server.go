package xink

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReloadPath is where the dev reload socket is mounted.
const ReloadPath = "/_xink/reload"

// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
const ShutdownTimeout = 5 * time.Second

// HandlerOptions configures Handler.
type HandlerOptions struct {
	// Metrics mounts the Prometheus exposition handler at MetricsPath.
	Metrics     bool
	MetricsPath string

	// Gatherer is scraped by the metrics handler. Defaults to
	// prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Reload, when set, is mounted at ReloadPath.
	Reload http.Handler
}

// Handler wraps app in the process-level HTTP stack. Paths claimed here
// (metrics, reload) shadow routes of the same name.
func Handler(app *App, opts HandlerOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if opts.Metrics {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Method(http.MethodGet, path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if opts.Reload != nil {
		r.Handle(ReloadPath, opts.Reload)
	}

	r.Handle("/*", app)
	return r
}

// ListenAndServe serves handler on addr until ctx is canceled, then shuts
// the server down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
