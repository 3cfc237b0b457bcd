package endpoint

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Response is what handlers and middleware return.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse creates a response with an empty header map.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// Text returns a text/plain response.
func Text(status int, body string) *Response {
	return withContentType(NewResponse(status, []byte(body)), "text/plain; charset=utf-8")
}

// HTML returns a text/html response.
func HTML(status int, body string) *Response {
	return withContentType(NewResponse(status, []byte(body)), "text/html; charset=utf-8")
}

// JSON encodes v as the response body.
func JSON(status int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return withContentType(NewResponse(status, data), "application/json"), nil
}

// NoContent returns an empty response with the given status.
func NoContent(status int) *Response {
	return NewResponse(status, nil)
}

func withContentType(res *Response, contentType string) *Response {
	res.Header.Set("Content-Type", contentType)
	res.Header.Set("Content-Length", strconv.Itoa(len(res.Body)))
	return res
}

// WriteTo writes the response to w.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}
