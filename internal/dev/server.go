package dev

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xink-dev/xink"
	"github.com/xink-dev/xink/internal/build"
	"github.com/xink-dev/xink/internal/config"
	xerrors "github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/pkg/manifest"
)

// ManifestPath is where the dev server exposes the current manifest.
const ManifestPath = "/_xink/manifest"

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnBuild is called after every manifest build.
	OnBuild func(res *build.Result, err error)

	// OnReload is called when clients are told to reload.
	OnReload func(clients int)
}

// Server is the development server. It rebuilds the dev manifest on every
// change, optionally rebuilds and restarts the application, and tells
// connected clients to reload.
type Server struct {
	config   *config.Config
	options  ServerOptions
	logger   *slog.Logger
	builder  *build.Builder
	compiler *Compiler
	watcher  *Watcher
	reload   *ReloadServer
	changeCh chan []Change

	mu         sync.Mutex
	running    bool
	httpServer *http.Server
	manifest   *manifest.Manifest
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) (*Server, error) {
	cfg := options.Config
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ignore := append([]string(nil), DefaultIgnore...)
	ignore = append(ignore, cfg.Dev.Ignore...)
	if rel, err := filepath.Rel(cfg.Dir(), cfg.OutputPath()); err == nil {
		ignore = append(ignore, filepath.ToSlash(rel))
	}

	watcher, err := NewWatcher(WatcherConfig{
		Paths:    append(cfg.WatchPaths(), configFile(cfg)...),
		Ignore:   ignore,
		Debounce: cfg.DebounceDuration(),
		Logger:   logger,
	})
	if err != nil {
		return nil, xerrors.New("E145").Wrap(err)
	}

	s := &Server{
		config:   cfg,
		options:  options,
		logger:   logger.With("component", "dev"),
		builder:  build.New(cfg, build.Options{Mode: manifest.Dev, Logger: logger}),
		watcher:  watcher,
		changeCh: make(chan []Change, 1),
	}
	if cfg.Dev.Main != "" {
		s.compiler = NewCompiler(CompilerConfig{
			ProjectPath: cfg.Dir(),
			Package:     cfg.Dev.Main,
		})
	}
	if cfg.ReloadEnabled() {
		s.reload = NewReloadServer(logger)
	}
	return s, nil
}

func configFile(cfg *config.Config) []string {
	if p := cfg.Path(); p != "" {
		return []string{p}
	}
	return nil
}

// Start runs the development server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	s.Rebuild(ctx)

	s.watcher.OnChange(s.enqueue)
	watchErr := make(chan error, 1)
	go func() {
		if err := s.watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			watchErr <- err
		}
	}()
	go s.processChanges(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server running", "url", s.config.URL())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- xerrors.New("E142").WithDetail(s.config.Address()).Wrap(err)
			return
		}
		errCh <- nil
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	case werr := <-watchErr:
		err = xerrors.New("E145").Wrap(werr)
	}
	s.Stop()
	return err
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	s.watcher.Stop()
	if s.compiler != nil {
		s.compiler.Stop()
	}
	if s.reload != nil {
		s.reload.Close()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopGrace)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// Handler returns the dev server's HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if s.reload != nil {
		r.Handle(xink.ReloadPath, s.reload)
	}
	r.Get(ManifestPath, s.serveManifest)

	if s.compiler != nil {
		r.Handle("/*", s.proxy())
	} else {
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, "no application configured (set dev.main); manifest at "+ManifestPath, http.StatusNotFound)
		})
	}
	return r
}

func (s *Server) serveManifest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	m := s.manifest
	s.mu.Unlock()

	if m == nil {
		http.Error(w, "no successful build yet", http.StatusServiceUnavailable)
		return
	}
	http.ServeFile(w, r, s.builder.ManifestPath())
}

func (s *Server) proxy() http.Handler {
	target := &url.URL{Scheme: "http", Host: s.config.AppAddress()}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Debug("proxy", "error", err)
		http.Error(w, "application not running; check the terminal for build errors", http.StatusBadGateway)
	}
	return proxy
}

// Rebuild regenerates the dev manifest and, when an application package is
// configured, rebuilds and restarts it. Clients are told to reload on
// success and sent the error otherwise.
func (s *Server) Rebuild(ctx context.Context) error {
	res, err := s.builder.Build(ctx)
	if s.options.OnBuild != nil {
		s.options.OnBuild(res, err)
	}
	if err != nil {
		s.fail("manifest build failed", err)
		return err
	}

	s.mu.Lock()
	s.manifest = res.Manifest
	s.mu.Unlock()
	s.logger.Info("manifest rebuilt", "routes", len(res.Routes), "duration", res.Duration.Round(time.Millisecond))

	if s.compiler != nil {
		result := s.compiler.Build(ctx)
		if !result.Success {
			s.fail("application build failed", result.Error)
			return result.Error
		}
		s.logger.Info("application built", "duration", result.Duration.Round(time.Millisecond))

		if err := s.compiler.Start(ctx, s.config.AppAddress()); err != nil {
			s.fail("application start failed", err)
			return err
		}
	}

	s.notifyReload()
	return nil
}

func (s *Server) fail(msg string, err error) {
	s.logger.Error(msg, "error", err)
	if s.reload == nil {
		return
	}
	text := err.Error()
	if xe := xerrors.FromError(err, "E143"); xe != nil {
		text = xe.FormatCompact()
	}
	s.reload.NotifyError(text)
}

func (s *Server) notifyReload() {
	if s.reload == nil {
		return
	}
	s.reload.NotifyReload()
	clients := s.reload.ClientCount()
	if s.options.OnReload != nil {
		s.options.OnReload(clients)
	}
	s.logger.Debug("reloaded clients", "clients", clients)
}

// enqueue hands a batch to processChanges, merging with a batch that is
// still waiting.
func (s *Server) enqueue(changes []Change) {
	for {
		select {
		case s.changeCh <- changes:
			return
		case prev := <-s.changeCh:
			changes = append(prev, changes...)
		}
	}
}

// processChanges serializes rebuilds.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case changes := <-s.changeCh:
			s.handleChanges(ctx, changes)
		}
	}
}

func (s *Server) handleChanges(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}
	for _, c := range changes {
		s.logger.Info("changed", "path", s.rel(c.Path), "type", c.Type.String())
		if c.Type == ChangeConfig {
			s.logger.Warn("config file changed; restart xink dev to apply it")
		}
	}
	s.Rebuild(ctx)
}

func (s *Server) rel(p string) string {
	if rel, err := filepath.Rel(s.config.Dir(), p); err == nil {
		return filepath.ToSlash(rel)
	}
	return p
}

// Manifest returns the manifest from the last successful build.
func (s *Server) Manifest() *manifest.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

// ReloadServer returns the reload socket, or nil when reload is disabled.
func (s *Server) ReloadServer() *ReloadServer {
	return s.reload
}
