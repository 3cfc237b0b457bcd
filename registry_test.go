package xink

import (
	"errors"
	"net/http"
	"testing"

	"github.com/xink-dev/xink/pkg/endpoint"
)

func TestRegistryRouteFile(t *testing.T) {
	tests := []struct {
		file    string
		pattern string
	}{
		{"endpoint.go", "/"},
		{"blog/[slug]/endpoint.go", "/blog/:slug"},
		{"blog/[id=int]/route.go", "/blog/:id=int"},
		{"docs/[...rest]/endpoint.go", "/docs/*rest"},
		{"[[lang]]/about/route.go", "/:lang?/about"},
	}

	for _, tt := range tests {
		reg := NewRegistry()
		if err := reg.RouteFile(tt.file, endpoint.Store{http.MethodGet: text("x")}); err != nil {
			t.Fatalf("RouteFile(%q): %v", tt.file, err)
		}
		if _, ok := reg.lookup(tt.pattern); !ok {
			t.Errorf("RouteFile(%q) did not register %q; have %v", tt.file, tt.pattern, reg.Patterns())
		}
	}
}

func TestRegistryRouteMerges(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Route("/a/", endpoint.Store{http.MethodGet: text("get")}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Route("/a", endpoint.Store{http.MethodPost: text("post")}); err != nil {
		t.Fatal(err)
	}

	store, ok := reg.lookup("/a")
	if !ok {
		t.Fatal("route not registered")
	}
	if got := store.Allow(); len(got) != 2 {
		t.Errorf("Allow() = %v, want GET and POST", got)
	}
	if got := reg.Patterns(); len(got) != 1 {
		t.Errorf("Patterns() = %v", got)
	}
}

func TestRegistryRouteErrors(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Route("/a/*rest/b", endpoint.Store{}); err == nil {
		t.Error("invalid pattern accepted")
	}
	err := reg.Route("/a", endpoint.Store{"TRACE": text("x")})
	if !errors.Is(err, endpoint.ErrUnsupportedMethod) {
		t.Errorf("TRACE: err = %v", err)
	}
	err = reg.Route("/a", endpoint.Store{http.MethodGet: nil})
	if !errors.Is(err, endpoint.ErrNilHandler) {
		t.Errorf("nil handler: err = %v", err)
	}
}
