package xink

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/xink-dev/xink/internal/config"
	"github.com/xink-dev/xink/internal/logging"
	"github.com/xink-dev/xink/pkg/endpoint"
	"github.com/xink-dev/xink/pkg/manifest"
	"github.com/xink-dev/xink/pkg/middleware"
)

// EnvDev is set to "1" by `xink dev` in the application's environment. Run
// then loads the dev manifest instead of the built one.
const EnvDev = "XINK_DEV"

// EnvAddr overrides the configured listen address.
const EnvAddr = "XINK_ADDR"

// RunOptions configures Run.
type RunOptions struct {
	// Dir is the project directory. Defaults to the nearest directory above
	// the working directory holding a config file or go.mod.
	Dir string

	// Logger defaults to one built from the log section of the config.
	Logger *slog.Logger

	// Middleware runs after the built-in request id, logging, metrics and
	// tracing handles and before the router's middleware.
	Middleware []endpoint.Handle

	// Registry receives request metrics and backs the metrics endpoint when
	// server.metrics is enabled. Defaults to the global Prometheus registry.
	Registry *prometheus.Registry

	// TracerProvider is used when server.tracing is enabled. Defaults to the
	// global provider.
	TracerProvider trace.TracerProvider
}

// Run loads the project config and manifest, binds reg to it and serves
// until ctx is canceled.
func Run(ctx context.Context, reg *Registry, opts RunOptions) error {
	h, addr, logger, err := setup(reg, opts)
	if err != nil {
		return err
	}
	return ListenAndServe(ctx, addr, h, logger)
}

func setup(reg *Registry, opts RunOptions) (http.Handler, string, *slog.Logger, error) {
	cfg, err := loadConfig(opts.Dir)
	if err != nil {
		return nil, "", nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		if err != nil {
			return nil, "", nil, err
		}
	}

	mode := manifest.Build
	if os.Getenv(EnvDev) == "1" {
		mode = manifest.Dev
	}
	r, err := LoadFile(manifest.Path(cfg.Dir(), mode, cfg.OutputPath()), reg, logger)
	if err != nil {
		return nil, "", nil, err
	}

	handles := []endpoint.Handle{
		middleware.RequestID(),
		middleware.Logger(logger),
	}

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if cfg.Server.Metrics {
		var registerer prometheus.Registerer = prometheus.DefaultRegisterer
		if opts.Registry != nil {
			registerer, gatherer = opts.Registry, opts.Registry
		}
		handles = append(handles, middleware.Prometheus(middleware.WithRegistry(registerer)))
	}
	if cfg.Server.Tracing {
		tp := opts.TracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		handles = append(handles, middleware.OpenTelemetry(middleware.WithTracerProvider(tp)))
	}
	handles = append(handles, opts.Middleware...)

	app := New(r, Config{Logger: logger, Middleware: handles})
	h := Handler(app, HandlerOptions{
		Metrics:     cfg.Server.Metrics,
		MetricsPath: cfg.Server.MetricsPath,
		Gatherer:    gatherer,
	})

	addr := os.Getenv(EnvAddr)
	if addr == "" {
		addr = cfg.Address()
	}
	logger.Info("xink ready", "mode", mode, "addr", addr, "routes", len(r.Routes()))
	return h, addr, logger, nil
}

func loadConfig(dir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if dir != "" {
		cfg, err = config.Load(dir)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
