package endpoint

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func newTestEvent(t *testing.T) *Event {
	t.Helper()
	return NewEvent(httptest.NewRequest(http.MethodGet, "http://localhost/", nil), nil, nil)
}

func TestSequenceEmptyIsIdentity(t *testing.T) {
	ev := newTestEvent(t)
	want := Text(http.StatusOK, "terminal")

	terminal := func(got *Event) (*Response, error) {
		if got != ev {
			t.Error("terminal received a different event")
		}
		return want, nil
	}

	res, err := Sequence()(ev, terminal)
	if err != nil {
		t.Fatal(err)
	}
	if res != want {
		t.Error("Sequence() did not return the terminal response")
	}
}

func TestSequenceOrder(t *testing.T) {
	var calls []string

	mark := func(name string) Handle {
		return func(ev *Event, resolve Resolve) (*Response, error) {
			calls = append(calls, name+":before")
			res, err := resolve(ev)
			calls = append(calls, name+":after")
			return res, err
		}
	}

	terminal := func(ev *Event) (*Response, error) {
		calls = append(calls, "terminal")
		return Text(http.StatusOK, "ok"), nil
	}

	_, err := Sequence(mark("a"), mark("b"), mark("c"))(newTestEvent(t), terminal)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a:before", "b:before", "c:before", "terminal", "c:after", "b:after", "a:after"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestSequenceShortCircuit(t *testing.T) {
	deny := func(ev *Event, resolve Resolve) (*Response, error) {
		return Text(http.StatusForbidden, "no"), nil
	}
	never := func(ev *Event, resolve Resolve) (*Response, error) {
		t.Error("handle after short-circuit was called")
		return resolve(ev)
	}
	terminal := func(ev *Event) (*Response, error) {
		t.Error("terminal was called")
		return nil, nil
	}

	res, err := Sequence(deny, never)(newTestEvent(t), terminal)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != http.StatusForbidden {
		t.Errorf("Status = %d, want 403", res.Status)
	}
}

func TestSequencePassesReplacedEvent(t *testing.T) {
	replacement := newTestEvent(t)
	swap := func(ev *Event, resolve Resolve) (*Response, error) {
		return resolve(replacement)
	}
	terminal := func(ev *Event) (*Response, error) {
		if ev != replacement {
			t.Error("terminal did not receive the replaced event")
		}
		return NoContent(http.StatusNoContent), nil
	}

	if _, err := Sequence(swap)(newTestEvent(t), terminal); err != nil {
		t.Fatal(err)
	}
}

func TestSequencePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	terminal := func(ev *Event) (*Response, error) { return nil, boom }

	_, err := Sequence(Identity, Identity)(newTestEvent(t), terminal)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestStoreSet(t *testing.T) {
	h := func(ev *Event) (*Response, error) { return nil, nil }
	s := make(Store)

	for _, m := range AllowedMethods() {
		if err := s.Set(m, h); err != nil {
			t.Errorf("Set(%q): %v", m, err)
		}
	}

	if err := s.Set("TRACE", h); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("Set(TRACE) error = %v, want ErrUnsupportedMethod", err)
	}
	if err := s.Set("get", h); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("Set(get) error = %v, want ErrUnsupportedMethod", err)
	}
	if err := s.Set(http.MethodGet, nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Set(GET, nil) error = %v, want ErrNilHandler", err)
	}
}

func TestStoreLookup(t *testing.T) {
	get := func(ev *Event) (*Response, error) { return Text(200, "get"), nil }
	fallback := func(ev *Event) (*Response, error) { return Text(200, "fallback"), nil }

	s := Store{http.MethodGet: get}
	if _, ok := s.Lookup(http.MethodPost); ok {
		t.Error("Lookup(POST) found a handler without fallback")
	}

	s[MethodFallback] = fallback
	h, ok := s.Lookup(http.MethodPost)
	if !ok {
		t.Fatal("Lookup(POST) did not use fallback")
	}
	res, _ := h(nil)
	if string(res.Body) != "fallback" {
		t.Errorf("body = %q, want fallback", res.Body)
	}

	h, _ = s.Lookup(http.MethodGet)
	res, _ = h(nil)
	if string(res.Body) != "get" {
		t.Errorf("body = %q, want get", res.Body)
	}
}

func TestStoreAllow(t *testing.T) {
	h := func(ev *Event) (*Response, error) { return nil, nil }
	s := Store{"POST": h, "GET": h, MethodFallback: h, "DELETE": h}

	if got := strings.Join(s.Allow(), ", "); got != "DELETE, GET, POST" {
		t.Errorf("Allow() = %q", got)
	}
}
