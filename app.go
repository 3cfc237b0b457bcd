package xink

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xink-dev/xink/pkg/endpoint"
	"github.com/xink-dev/xink/pkg/router"
)

// ErrNilResponse is returned by Fetch when the middleware chain returns
// neither a response nor an error.
var ErrNilResponse = errors.New("middleware returned no response")

// Config configures an App.
type Config struct {
	// Logger receives request errors. Defaults to slog.Default().
	Logger *slog.Logger

	// Middleware runs before the router's middleware, in order.
	Middleware []endpoint.Handle
}

// App dispatches requests through a sealed router.
type App struct {
	router *router.Router
	handle endpoint.Handle
	logger *slog.Logger
}

// New creates an App serving r. The router is sealed: routes, matchers and
// middleware cannot change once requests are being served.
func New(r *router.Router, cfg Config) *App {
	r.Seal()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// The 304 downgrade sits inside the process-level handles so metrics and
	// logs see the status the client receives.
	handles := append([]endpoint.Handle(nil), cfg.Middleware...)
	handles = append(handles, conditional)
	if mw := r.Middleware(); mw != nil {
		handles = append(handles, mw)
	}

	return &App{
		router: r,
		handle: endpoint.Sequence(handles...),
		logger: logger.With("component", "app"),
	}
}

// Router returns the router the app serves.
func (a *App) Router() *router.Router {
	return a.router
}

// Fetch runs the request through the middleware and the matched handler
// and returns the response. Errors from handlers, middleware and header
// staging are returned as-is.
func (a *App) Fetch(r *http.Request) (*endpoint.Response, error) {
	var (
		route  *endpoint.Route
		params map[string]string
	)
	if m, ok := a.router.Find(r.URL.EscapedPath()); ok {
		route = &endpoint.Route{Pattern: m.Pattern, Store: m.Store}
		params = m.Params
	}

	ev := endpoint.NewEvent(r, route, params)

	res, err := a.handle(ev, finalize(resolve))
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNilResponse
	}
	return notModified(r, res), nil
}

// ServeHTTP implements http.Handler. An error from Fetch becomes a 500.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := a.Fetch(r)
	if err != nil {
		a.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := res.WriteTo(w); err != nil {
		a.logger.Debug("write response", "path", r.URL.Path, "error", err)
	}
}

// resolve is the terminal step of the middleware chain.
func resolve(ev *endpoint.Event) (*endpoint.Response, error) {
	if ev.Route == nil {
		return endpoint.Text(http.StatusNotFound, "Not Found"), nil
	}

	h, ok := ev.Route.Store.Lookup(ev.Method())
	if !ok {
		res := endpoint.Text(http.StatusMethodNotAllowed, "Method Not Allowed")
		res.Header.Set("Allow", strings.Join(ev.Route.Store.Allow(), ", "))
		return res, nil
	}
	return h(ev)
}

// finalize merges staged headers and cookies into whatever next returns.
func finalize(next endpoint.Resolve) endpoint.Resolve {
	return func(ev *endpoint.Event) (*endpoint.Response, error) {
		res, err := next(ev)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, ErrNilResponse
		}
		if err := ev.Finalize(res); err != nil {
			return nil, err
		}
		return res, nil
	}
}

// conditional applies the 304 downgrade to what the router's middleware
// returns.
func conditional(ev *endpoint.Event, next endpoint.Resolve) (*endpoint.Response, error) {
	res, err := next(ev)
	if err != nil || res == nil {
		return res, err
	}
	return notModified(ev.Request, res), nil
}

// notModifiedHeaders are copied from the full response onto a 304.
var notModifiedHeaders = []string{
	"Cache-Control",
	"Content-Location",
	"Date",
	"Expires",
	"Vary",
	"Set-Cookie",
}

// notModified downgrades a 200 to 304 when If-None-Match equals its ETag.
// A weak validator prefix on the request value is ignored.
func notModified(r *http.Request, res *endpoint.Response) *endpoint.Response {
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	if status != http.StatusOK {
		return res
	}

	etag := res.Header.Get("ETag")
	if etag == "" {
		return res
	}

	inm := r.Header.Get("If-None-Match")
	if inm == "" || strings.TrimPrefix(inm, "W/") != etag {
		return res
	}

	out := endpoint.NoContent(http.StatusNotModified)
	out.Header.Set("ETag", etag)
	for _, k := range notModifiedHeaders {
		if vs := res.Header.Values(k); len(vs) > 0 {
			out.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}
	}
	return out
}
