package middleware

import (
	"context"
	"fmt"

	"github.com/xink-dev/xink/pkg/endpoint"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "xink"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "xink").
	TracerName string

	// TracerProvider supplies the tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which requests to trace. Return false to skip.
	// If nil, all requests are traced.
	Filter func(ev *endpoint.Event) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(ev *endpoint.Event) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithFilter sets a filter function for requests.
func WithFilter(filter func(ev *endpoint.Event) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ev *endpoint.Event) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every request.
//
// The span is named "<METHOD> <pattern>" (or "<METHOD> unmatched"), carries
// the method, path, route and response status, and is marked as an error
// when the request fails or the status is 5xx. Downstream handlers see the
// span through ev.Context().
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure it in main() before serving:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) endpoint.Handle {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return func(ev *endpoint.Event, resolve endpoint.Resolve) (*endpoint.Response, error) {
		if config.Filter != nil && !config.Filter(ev) {
			return resolve(ev)
		}

		route := routeLabel(ev)
		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", ev.Method()),
			attribute.String("url.path", ev.URL.Path),
			attribute.String("http.route", route),
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(ev)...)
		}

		ctx, span := tracer.Start(
			ev.Context(),
			fmt.Sprintf("%s %s", ev.Method(), route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		ev.Request = ev.Request.WithContext(ctx)

		res, err := resolve(ev)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case res != nil:
			status := statusOf(res)
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= 500 {
				span.SetStatus(codes.Error, "")
			}
		}
		return res, err
	}
}

// SpanFromEvent returns the span started for the request, or a no-op span
// when the request is not traced.
func SpanFromEvent(ev *endpoint.Event) trace.Span {
	return trace.SpanFromContext(ev.Context())
}

// TraceContext returns the context to use for outgoing calls.
func TraceContext(ev *endpoint.Event) context.Context {
	return ev.Context()
}
