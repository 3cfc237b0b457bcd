package xink

import (
	"log/slog"
	"os"
	"sort"

	"github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/pkg/manifest"
	"github.com/xink-dev/xink/pkg/router"
)

// Load builds a sealed router from a manifest. Every manifest entry must
// resolve to a registry entry: a route without handlers, a param type
// without a matcher or a middleware file without a Handle is an error.
// The builtin matchers (int, uuid, slug) are available unless the registry
// overrides them.
func Load(m *manifest.Manifest, reg *Registry, logger *slog.Logger) (*router.Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "load")

	r := router.New()

	matchers := router.Builtin()
	for typ, fn := range reg.params {
		matchers[typ] = fn
	}
	for _, typ := range m.ParamTypes() {
		if _, ok := reg.params[typ]; !ok {
			return nil, errors.New("E222").
				WithFile(m.Params[typ]).
				WithDetailf("param type %q has no registered matcher", typ)
		}
	}
	types := make([]string, 0, len(matchers))
	for typ := range matchers {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		if err := r.SetMatcher(typ, matchers[typ]); err != nil {
			return nil, errors.New("E222").WithDetail(typ).Wrap(err)
		}
	}

	switch {
	case m.Middleware != nil && reg.middleware == nil:
		return nil, errors.New("E222").
			WithFile(*m.Middleware).
			WithDetail("middleware has no registered Handle")
	case m.Middleware != nil:
		if err := r.SetMiddleware(reg.middleware); err != nil {
			return nil, err
		}
	case reg.middleware != nil:
		logger.Warn("registered middleware is not in the manifest and will not run")
	}

	used := make(map[string]bool)
	for _, key := range m.Keys() {
		route := m.Routes[key]

		store, ok := reg.lookup(route.Path)
		if !ok {
			return nil, errors.New("E221").
				WithFile(route.File).
				WithDetailf("no handlers registered for %s", route.Path)
		}

		dst, err := r.Register(route.Path)
		if err != nil {
			return nil, errors.New("E205").WithFile(route.File).WithDetail(route.Path).Wrap(err)
		}
		for method, h := range store {
			if err := dst.Set(method, h); err != nil {
				return nil, errors.New("E203").WithFile(route.File).Wrap(err)
			}
		}

		used[route.Path] = true
		logger.Debug("route loaded", "pattern", route.Path, "file", route.File, "methods", dst.Allow())
	}

	for _, p := range reg.Patterns() {
		if !used[p] {
			logger.Warn("registered route is not in the manifest", "pattern", p)
		}
	}

	r.Seal()
	logger.Info("router ready", "routes", len(m.Routes), "params", len(matchers), "middleware", m.Middleware != nil)
	return r, nil
}

// LoadFile reads the manifest at path and calls Load.
func LoadFile(path string, reg *Registry, logger *slog.Logger) (*router.Router, error) {
	m, err := manifest.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E220").WithFile(path)
		}
		return nil, errors.New("E220").WithFile(path).Wrap(err)
	}
	return Load(m, reg, logger)
}
