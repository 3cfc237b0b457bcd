// Package endpoint defines the values exchanged between the dispatch
// pipeline, route handlers, and middleware.
//
// A route file exports one handler per HTTP method:
//
//	func GET(ev *endpoint.Event) (*endpoint.Response, error) {
//	    return endpoint.Text(http.StatusOK, "hello "+ev.Params["slug"]), nil
//	}
//
// The handlers of one route form a Store. Middleware has the Handle shape and
// receives a Resolve continuation; several Handles are combined with
// Sequence:
//
//	handle := endpoint.Sequence(auth, logging)
//
// Each request gets a fresh Event carrying the parsed URL, the bound route
// parameters, a Locals bag for middleware, and a Cookies jar that is flushed
// into Set-Cookie headers when the response is finalized.
package endpoint
