package router

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/xink-dev/xink/pkg/endpoint"
	"github.com/xink-dev/xink/pkg/routepath"
)

// ErrSealed is returned by mutating methods after Seal.
var ErrSealed = errors.New("router is sealed")

// Matcher reports whether a raw path segment is a valid value for a param type.
type Matcher func(value string) bool

// Match is the result of a successful Find.
type Match struct {
	// Pattern is the matched pattern string.
	Pattern string

	// Params binds every parameter name in the pattern to its value. An
	// absent optional parameter has no key.
	Params map[string]string

	// Store holds the route's handlers.
	Store endpoint.Store
}

type entry struct {
	pattern routepath.Pattern
	key     string
	store   endpoint.Store
	seq     int
}

// Router holds the registered patterns, param matchers and the middleware.
type Router struct {
	entries    []*entry
	byKey      map[string]*entry
	matchers   map[string]Matcher
	middleware endpoint.Handle
	sealed     atomic.Bool
}

// New creates an empty router.
func New() *Router {
	return &Router{
		byKey:    make(map[string]*entry),
		matchers: make(map[string]Matcher),
	}
}

// Register returns the handler store for pattern, creating it on first use.
// Patterns are keyed by their canonical form, so "/blog/:slug/" and
// "/blog/:slug" share a store.
func (r *Router) Register(pattern string) (endpoint.Store, error) {
	if r.sealed.Load() {
		return nil, ErrSealed
	}

	p, err := routepath.Parse(pattern)
	if err != nil {
		return nil, err
	}

	key := p.String()
	if e, ok := r.byKey[key]; ok {
		return e.store, nil
	}

	e := &entry{
		pattern: p,
		key:     key,
		store:   make(endpoint.Store),
		seq:     len(r.entries),
	}
	r.byKey[key] = e

	// Keep entries in precedence order so Find can stop at the first match.
	i := sort.Search(len(r.entries), func(i int) bool {
		return less(e, r.entries[i])
	})
	r.entries = append(r.entries, nil)
	copy(r.entries[i+1:], r.entries[i:])
	r.entries[i] = e

	return e.store, nil
}

// SetMatcher registers the predicate for typed segments of the given type.
func (r *Router) SetMatcher(typ string, m Matcher) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	if typ == "" {
		return fmt.Errorf("matcher type must not be empty")
	}
	if m == nil {
		return fmt.Errorf("matcher %q is nil", typ)
	}
	r.matchers[typ] = m
	return nil
}

// SetMiddleware stores the process-wide middleware.
func (r *Router) SetMiddleware(h endpoint.Handle) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	r.middleware = h
	return nil
}

// Middleware returns the registered middleware, or nil when none is set.
func (r *Router) Middleware() endpoint.Handle {
	return r.middleware
}

// Seal marks the end of initialization. It is idempotent.
func (r *Router) Seal() {
	r.sealed.Store(true)
}

// Sealed reports whether Seal has been called.
func (r *Router) Sealed() bool {
	return r.sealed.Load()
}

// Routes returns the registered patterns in precedence order.
func (r *Router) Routes() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.key
	}
	return out
}

// Find returns the best match for an escaped request path. Paths that fail
// canonicalization or contain invalid escapes never match.
func (r *Router) Find(path string) (*Match, bool) {
	canonical, err := routepath.Canonicalize(path)
	if err != nil {
		return nil, false
	}

	segs, ok := splitPath(canonical)
	if !ok {
		return nil, false
	}

	for _, e := range r.entries {
		if params, ok := r.match(e.pattern, segs); ok {
			return &Match{Pattern: e.key, Params: params, Store: e.store}, true
		}
	}
	return nil, false
}

func splitPath(canonical string) ([]string, bool) {
	if canonical == "/" {
		return nil, true
	}
	raw := strings.Split(strings.TrimPrefix(canonical, "/"), "/")
	segs := make([]string, len(raw))
	for i, s := range raw {
		d, err := url.PathUnescape(s)
		if err != nil {
			return nil, false
		}
		segs[i] = d
	}
	return segs, true
}

func (r *Router) match(p routepath.Pattern, segs []string) (map[string]string, bool) {
	n, m := len(segs), p.Len()
	switch p.Tail() {
	case routepath.Rest:
		if n < m {
			return nil, false
		}
	case routepath.Optional:
		if n != m && n != m-1 {
			return nil, false
		}
	default:
		if n != m {
			return nil, false
		}
	}

	params := make(map[string]string)
	for i, s := range p.Segments {
		if i >= n {
			// Absent optional tail.
			break
		}
		v := segs[i]
		// An encoded slash only binds inside a rest segment.
		if s.Kind != routepath.Rest && strings.Contains(v, "/") {
			return nil, false
		}
		switch s.Kind {
		case routepath.Static:
			if v != s.Text {
				return nil, false
			}
		case routepath.Typed:
			fn, ok := r.matchers[s.Type]
			if !ok || !fn(v) {
				return nil, false
			}
			params[s.Name] = v
		case routepath.Dynamic, routepath.Optional:
			params[s.Name] = v
		case routepath.Rest:
			params[s.Name] = strings.Join(segs[i:], "/")
		}
	}
	return params, true
}

// less reports whether a takes precedence over b.
func less(a, b *entry) bool {
	pa, pb := a.pattern, b.pattern

	if x, y := pa.StaticPrefix(), pb.StaticPrefix(); x != y {
		return x > y
	}

	for i := 0; i < pa.Len() && i < pb.Len(); i++ {
		ka, kb := pa.Segments[i].Kind, pb.Segments[i].Kind
		if ka != kb {
			return ka < kb
		}
	}

	if x, y := pa.HasVariableTail(), pb.HasVariableTail(); x != y {
		return !x
	}

	if x, y := pa.Len(), pb.Len(); x != y {
		return x < y
	}

	return a.seq < b.seq
}
