package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Header staging errors.
var (
	ErrSetCookieHeader = errors.New("use Cookies.Set instead of SetHeaders to set cookies")
	ErrDuplicateHeader = errors.New("header is already set")
)

// Route is the route an event was matched to.
type Route struct {
	// Pattern is the compiled pattern, e.g. "/blog/:slug".
	Pattern string

	// Store holds the route's handlers.
	Store Store
}

// Event is the per-request value passed through middleware and handlers.
// It is created fresh for every request and must not be shared.
type Event struct {
	// Request is the incoming request.
	Request *http.Request

	// URL is the absolute request URL (scheme and host filled in).
	URL *url.URL

	// Headers are the request headers.
	Headers http.Header

	// Locals is a free-form bag for middleware and handlers.
	Locals map[string]any

	// Params holds the route parameters bound by the router.
	Params map[string]string

	// Route is the matched route, or nil when nothing matched.
	Route *Route

	// Cookies is the request's cookie jar.
	Cookies *Cookies

	staged map[string]string
	err    error
}

// NewEvent builds the event for r. route and params may be nil.
func NewEvent(r *http.Request, route *Route, params map[string]string) *Event {
	u := requestURL(r)
	if params == nil {
		params = make(map[string]string)
	}
	return &Event{
		Request: r,
		URL:     u,
		Headers: r.Header,
		Locals:  make(map[string]any),
		Params:  params,
		Route:   route,
		Cookies: NewCookies(r, u),
		staged:  make(map[string]string),
	}
}

func requestURL(r *http.Request) *url.URL {
	u := *r.URL
	if u.Scheme == "" {
		u.Scheme = "http"
		if r.TLS != nil {
			u.Scheme = "https"
		}
	}
	if u.Host == "" {
		u.Host = r.Host
	}
	return &u
}

// Context returns the request context.
func (e *Event) Context() context.Context {
	return e.Request.Context()
}

// Method returns the request method.
func (e *Event) Method() string {
	return e.Request.Method
}

// SetHeaders stages response headers. Each header may be staged once, and
// Set-Cookie must go through Cookies. A rejected header fails the request:
// the error is returned here and again when the response is finalized.
func (e *Event) SetHeaders(headers map[string]string) error {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		lower := strings.ToLower(k)
		switch _, dup := e.staged[lower]; {
		case lower == "set-cookie":
			return e.fail(ErrSetCookieHeader)
		case dup:
			return e.fail(fmt.Errorf("%q: %w", k, ErrDuplicateHeader))
		}
		e.staged[lower] = headers[k]
	}
	return nil
}

func (e *Event) fail(err error) error {
	if e.err == nil {
		e.err = err
	}
	return err
}

// Err returns the first header staging error, if any.
func (e *Event) Err() error {
	return e.err
}

// StagedHeaders returns a copy of the headers staged with SetHeaders, keyed
// by lower-case name.
func (e *Event) StagedHeaders() map[string]string {
	out := make(map[string]string, len(e.staged))
	for k, v := range e.staged {
		out[k] = v
	}
	return out
}

// Finalize merges staged headers into res and flushes the cookie jar into
// Set-Cookie headers.
func (e *Event) Finalize(res *Response) error {
	if e.err != nil {
		return e.err
	}
	if res.Header == nil {
		res.Header = make(http.Header)
	}
	for k, v := range e.staged {
		res.Header.Set(k, v)
	}
	e.Cookies.Apply(res.Header)
	return nil
}
