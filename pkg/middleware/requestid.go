package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/xink-dev/xink/pkg/endpoint"
)

// RequestIDHeader carries the request ID on requests and responses.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the Locals key holding the request ID.
const RequestIDKey = "request_id"

// RequestID assigns every request an ID, stores it in ev.Locals and echoes
// it on the response. An ID set by chi's RequestID middleware or sent by
// the client is reused; otherwise a random UUID is generated.
func RequestID() endpoint.Handle {
	return func(ev *endpoint.Event, resolve endpoint.Resolve) (*endpoint.Response, error) {
		id := chimw.GetReqID(ev.Context())
		if id == "" {
			id = ev.Headers.Get(RequestIDHeader)
		}
		if id == "" {
			id = uuid.NewString()
		}
		ev.Locals[RequestIDKey] = id

		res, err := resolve(ev)
		if res != nil && res.Header.Get(RequestIDHeader) == "" {
			if res.Header == nil {
				res.Header = make(http.Header)
			}
			res.Header.Set(RequestIDHeader, id)
		}
		return res, err
	}
}

// GetRequestID returns the ID assigned by RequestID, if any.
func GetRequestID(ev *endpoint.Event) string {
	id, _ := ev.Locals[RequestIDKey].(string)
	return id
}
