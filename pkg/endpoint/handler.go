package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// MethodFallback is the pseudo-method used when a route has no handler for
// the requested method.
const MethodFallback = "fallback"

// allowedMethods is the set of keys a Store accepts.
var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	MethodFallback:     true,
}

// AllowedMethod reports whether method may key a handler.
func AllowedMethod(method string) bool {
	return allowedMethods[method]
}

// AllowedMethods returns the accepted handler keys in sorted order.
func AllowedMethods() []string {
	out := make([]string, 0, len(allowedMethods))
	for m := range allowedMethods {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Handler responds to a request for one route and method.
type Handler func(ev *Event) (*Response, error)

// Resolve continues the pipeline with the given event.
type Resolve func(ev *Event) (*Response, error)

// Handle is the middleware shape: it may inspect or modify the event, call
// resolve to continue, or return its own response without calling resolve.
type Handle func(ev *Event, resolve Resolve) (*Response, error)

// Identity is the Handle used when no middleware is configured.
func Identity(ev *Event, resolve Resolve) (*Response, error) {
	return resolve(ev)
}

// Sequence composes handles into one. Each handle receives a resolve that
// runs the next handle; the last one receives the pipeline's resolve.
// Sequence() with no arguments behaves as Identity.
func Sequence(handles ...Handle) Handle {
	if len(handles) == 0 {
		return Identity
	}

	return func(ev *Event, resolve Resolve) (*Response, error) {
		var apply func(i int, ev *Event) (*Response, error)
		apply = func(i int, ev *Event) (*Response, error) {
			return handles[i](ev, func(ev *Event) (*Response, error) {
				if i < len(handles)-1 {
					return apply(i+1, ev)
				}
				return resolve(ev)
			})
		}
		return apply(0, ev)
	}
}

// Store errors.
var (
	ErrUnsupportedMethod = errors.New("unsupported handler method")
	ErrNilHandler        = errors.New("nil handler")
)

// Store maps HTTP methods (and MethodFallback) to handlers for one route.
type Store map[string]Handler

// Set registers h for method. Methods outside the allowed set are rejected.
func (s Store) Set(method string, h Handler) error {
	if !AllowedMethod(method) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	if h == nil {
		return fmt.Errorf("%w for %s", ErrNilHandler, method)
	}
	s[method] = h
	return nil
}

// Lookup returns the handler for method, falling back to MethodFallback.
func (s Store) Lookup(method string) (Handler, bool) {
	if h, ok := s[method]; ok {
		return h, true
	}
	h, ok := s[MethodFallback]
	return h, ok
}

// Allow lists the registered methods in sorted order, without the fallback.
func (s Store) Allow() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		if m == MethodFallback {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
