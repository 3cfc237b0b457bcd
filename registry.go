package xink

import (
	"fmt"
	"sort"

	"github.com/xink-dev/xink/pkg/endpoint"
	"github.com/xink-dev/xink/pkg/routepath"
	"github.com/xink-dev/xink/pkg/router"
)

// Registry holds the handlers, param matchers and middleware that a
// manifest refers to. Route entries are keyed by canonical pattern.
type Registry struct {
	routes     map[string]endpoint.Store
	params     map[string]router.Matcher
	middleware endpoint.Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		routes: make(map[string]endpoint.Store),
		params: make(map[string]router.Matcher),
	}
}

// Route registers the handlers for a compiled pattern such as
// "/blog/:slug". Registering the same pattern twice merges the stores.
func (r *Registry) Route(pattern string, store endpoint.Store) error {
	p, err := routepath.Parse(pattern)
	if err != nil {
		return err
	}
	key := p.String()

	dst, ok := r.routes[key]
	if !ok {
		dst = make(endpoint.Store)
	}
	for method, h := range store {
		if err := dst.Set(method, h); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	r.routes[key] = dst
	return nil
}

// RouteFile registers the handlers for a route file path relative to the
// routes directory, e.g. "blog/[slug]/endpoint.go".
func (r *Registry) RouteFile(relPath string, store endpoint.Store) error {
	return r.Route(routepath.Compile(relPath), store)
}

// Param registers the matcher for a param type.
func (r *Registry) Param(typ string, m router.Matcher) {
	r.params[typ] = m
}

// Middleware registers the middleware Handle.
func (r *Registry) Middleware(h endpoint.Handle) {
	r.middleware = h
}

// Patterns lists the registered patterns in sorted order.
func (r *Registry) Patterns() []string {
	out := make([]string, 0, len(r.routes))
	for k := range r.routes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) lookup(pattern string) (endpoint.Store, bool) {
	p, err := routepath.Parse(pattern)
	if err != nil {
		return nil, false
	}
	s, ok := r.routes[p.String()]
	return s, ok
}
