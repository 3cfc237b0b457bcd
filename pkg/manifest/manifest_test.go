package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestPath(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{Dev, filepath.Join("proj", ".xink", "manifest.json")},
		{Build, filepath.Join("proj", "dist", "manifest.json")},
	}
	for _, tt := range tests {
		if got := Path("proj", tt.mode, filepath.Join("proj", "dist")); got != tt.want {
			t.Errorf("Path(%s) = %s, want %s", tt.mode, got, tt.want)
		}
	}
}

func TestModeValid(t *testing.T) {
	if !Dev.Valid() || !Build.Valid() {
		t.Error("known modes reported invalid")
	}
	if Mode("prod").Valid() {
		t.Error("unknown mode reported valid")
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "manifest.json")

	m := New()
	m.Routes["src/routes/blog/[slug]/endpoint.go"] = Route{Path: "/blog/:slug", File: "src/routes/blog/[slug]/endpoint.go"}
	m.Routes["src/routes/endpoint.go"] = Route{Path: "/", File: "src/routes/endpoint.go"}
	m.Params["int"] = "src/params/int.go"
	m.SetMiddleware("src/middleware.go")

	if err := m.Write(path); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("Read() = %+v, want %+v", got, m)
	}

	wantKeys := []string{"src/routes/blog/[slug]/endpoint.go", "src/routes/endpoint.go"}
	if !reflect.DeepEqual(got.Keys(), wantKeys) {
		t.Errorf("Keys() = %v", got.Keys())
	}
	if !reflect.DeepEqual(got.ParamTypes(), []string{"int"}) {
		t.Errorf("ParamTypes() = %v", got.ParamTypes())
	}
}

func TestWriteNullMiddleware(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := New().Write(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"middleware": null`) {
		t.Errorf("manifest = %s", data)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("manifest has no trailing newline")
	}
}

func TestReadMissingMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte(`{"middleware": null}`), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Routes == nil || m.Params == nil {
		t.Error("Read left nil maps")
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Read(filepath.Join(dir, "missing.json")); !os.IsNotExist(err) {
		t.Errorf("missing file: %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(bad); err == nil {
		t.Error("invalid JSON accepted")
	}
}
