// Package middleware provides endpoint.Handle middleware for xink
// applications.
//
// This package includes:
//   - Prometheus request metrics
//   - OpenTelemetry request tracing
//   - Request IDs
//   - Request logging with slog
//
// Middleware is composed with endpoint.Sequence and installed either as the
// project's middleware Handle or through xink.Config:
//
//	app := xink.New(r, xink.Config{
//	    Middleware: []endpoint.Handle{
//	        middleware.RequestID(),
//	        middleware.Logger(logger),
//	        middleware.Prometheus(middleware.WithNamespace("myapp")),
//	        middleware.OpenTelemetry(),
//	    },
//	})
//
// # Prometheus Metrics
//
// Metrics are labelled by route pattern rather than raw path, so label
// cardinality is bounded by the number of routes. Unmatched requests use
// the "unmatched" route label.
//
//   - xink_requests_total: requests by route, method and status
//   - xink_request_duration_seconds: request duration histogram
//   - xink_request_errors_total: requests that ended in an error
//
// Expose them with xink.Handler(app, xink.HandlerOptions{Metrics: true}).
//
// # Context Propagation
//
// The OpenTelemetry middleware replaces the event's request with one whose
// context carries the span, so ev.Context() can be passed to database
// drivers and HTTP clients:
//
//	func GET(ev *endpoint.Event) (*endpoint.Response, error) {
//	    row := db.QueryRowContext(ev.Context(), "SELECT ...")
//	    ...
//	}
package middleware
