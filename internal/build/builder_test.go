package build

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xink-dev/xink/internal/config"
	"github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/internal/logging"
	"github.com/xink-dev/xink/pkg/manifest"
)

const (
	routeGET = `package route

import "github.com/xink-dev/xink/pkg/endpoint"

func GET(ev *endpoint.Event) (*endpoint.Response, error) {
	return endpoint.Text(200, "ok"), nil
}
`
	routeGETPOST = `package route

import "github.com/xink-dev/xink/pkg/endpoint"

func GET(ev *endpoint.Event) (*endpoint.Response, error)  { return nil, nil }
func POST(ev *endpoint.Event) (*endpoint.Response, error) { return nil, nil }
func Fallback(ev *endpoint.Event) (*endpoint.Response, error) { return nil, nil }
`
	paramInt = `package params

import "strconv"

func Match(value string) bool {
	_, err := strconv.Atoi(value)
	return err == nil
}
`
	middlewareSrc = `package src

import "github.com/xink-dev/xink/pkg/endpoint"

func Handle(ev *endpoint.Event, resolve endpoint.Resolve) (*endpoint.Response, error) {
	return resolve(ev)
}
`
)

// writeProject creates files under a temp project root and loads its config.
func writeProject(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func fullProject() map[string]string {
	return map[string]string{
		"src/routes/endpoint.go":               routeGET,
		"src/routes/blog/[slug]/endpoint.go":   routeGETPOST,
		"src/routes/blog/[slug]/helpers.go":    "package route\n\nfunc Unrelated() {}\n",
		"src/routes/users/[id=int]/route.go":   routeGET,
		"src/routes/docs/[[lang]]/endpoint.go": routeGET,
		"src/routes/files/[...path]/endpoint.go": routeGET,
		"src/routes/blog/[slug]/endpoint_test.go": "package route\n\nfunc TestX() {}\n",
		"src/params/int.go":                    paramInt,
		"src/params/nomatch.go":                "package params\n\nvar Match = 3\n",
		"src/params/helper.go":                 "package params\n\nfunc helper() {}\n",
		"src/middleware.go":                    middlewareSrc,
	}
}

func newBuilder(cfg *config.Config, mode manifest.Mode) *Builder {
	return New(cfg, Options{Mode: mode, Logger: logging.Discard()})
}

func TestBuildDevMode(t *testing.T) {
	cfg := writeProject(t, fullProject())

	var steps []string
	b := New(cfg, Options{
		Mode:       manifest.Dev,
		Logger:     logging.Discard(),
		OnProgress: func(s string) { steps = append(steps, s) },
	})

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	wantPath := filepath.Join(cfg.Dir(), ".xink", "manifest.json")
	if result.Path != wantPath {
		t.Errorf("Path = %q, want %q", result.Path, wantPath)
	}
	if len(steps) == 0 {
		t.Error("no progress reported")
	}
	if len(result.Artifacts) != 0 {
		t.Errorf("dev mode wrote artifacts: %v", result.Artifacts)
	}

	m, err := manifest.Read(result.Path)
	if err != nil {
		t.Fatal(err)
	}

	wantRoutes := map[string]string{
		"src/routes/endpoint.go":                 "/",
		"src/routes/blog/[slug]/endpoint.go":     "/blog/:slug",
		"src/routes/users/[id=int]/route.go":     "/users/:id=int",
		"src/routes/docs/[[lang]]/endpoint.go":   "/docs/:lang?",
		"src/routes/files/[...path]/endpoint.go": "/files/*path",
	}
	if len(m.Routes) != len(wantRoutes) {
		t.Fatalf("routes = %v", m.Routes)
	}
	for key, pattern := range wantRoutes {
		r, ok := m.Routes[key]
		if !ok {
			t.Errorf("missing route %s", key)
			continue
		}
		if r.Path != pattern || r.File != key {
			t.Errorf("route %s = %+v, want path %s", key, r, pattern)
		}
	}

	if !reflect.DeepEqual(m.Params, map[string]string{"int": "src/params/int.go"}) {
		t.Errorf("params = %v", m.Params)
	}
	if m.Middleware == nil || *m.Middleware != "src/middleware.go" {
		t.Errorf("middleware = %v", m.Middleware)
	}

	for _, r := range result.Routes {
		if r.Path == "/blog/:slug" {
			want := []string{"GET", "POST", "fallback"}
			if !reflect.DeepEqual(r.Methods, want) {
				t.Errorf("methods = %v, want %v", r.Methods, want)
			}
		}
	}
}

func TestBuildBuildMode(t *testing.T) {
	files := fullProject()
	files["src/routes/endpoint.go"] = "package route\nfunc  GET( ev *endpoint.Event ) (*endpoint.Response, error) { return nil, nil }\n"
	cfg := writeProject(t, files)

	result, err := newBuilder(cfg, manifest.Build).Build(context.Background())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	out := cfg.OutputPath()
	if result.Path != filepath.Join(out, "manifest.json") {
		t.Errorf("Path = %q", result.Path)
	}

	m := result.Manifest
	wantRoutes := map[string]string{
		"endpoints/endpoint.go":                "/",
		"endpoints/blog/_slug_/endpoint.go":    "/blog/:slug",
		"endpoints/users/_id_=int/endpoint.go": "/users/:id=int",
		"endpoints/docs/_lang_/endpoint.go":    "/docs/:lang?",
		"endpoints/files/_path_/endpoint.go":   "/files/*path",
	}
	for key, pattern := range wantRoutes {
		r, ok := m.Routes[key]
		if !ok || r.Path != pattern || r.File != key {
			t.Errorf("route %s = %+v, %v", key, r, ok)
		}
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(key))); err != nil {
			t.Errorf("artifact %s: %v", key, err)
		}
	}

	if m.Params["int"] != "params/int.go" {
		t.Errorf("params = %v", m.Params)
	}
	if m.Middleware == nil || *m.Middleware != "middleware.go" {
		t.Errorf("middleware = %v", m.Middleware)
	}
	if len(result.Artifacts) != len(wantRoutes)+2 {
		t.Errorf("artifacts = %v", result.Artifacts)
	}

	root, err := os.ReadFile(filepath.Join(out, "endpoints", "endpoint.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(root), "func GET(ev *endpoint.Event)") {
		t.Errorf("artifact not formatted:\n%s", root)
	}
}

func TestBuildWithoutOptionalSources(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		"src/routes/endpoint.go": routeGET,
	})

	result, err := newBuilder(cfg, manifest.Dev).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Manifest.Middleware != nil {
		t.Errorf("middleware = %v, want nil", *result.Manifest.Middleware)
	}
	if len(result.Manifest.Params) != 0 {
		t.Errorf("params = %v", result.Manifest.Params)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		mode  manifest.Mode
		code  string
	}{
		{
			name:  "missing routes directory",
			files: map[string]string{"README.md": "x"},
			code:  "E200",
		},
		{
			name: "middleware without Handle",
			files: map[string]string{
				"src/routes/endpoint.go": routeGET,
				"src/middleware.go":      "package src\n\nfunc handle() {}\n",
			},
			code: "E201",
		},
		{
			name: "middleware Handle is not a func",
			files: map[string]string{
				"src/routes/endpoint.go": routeGET,
				"src/middleware.go":      "package src\n\nvar Handle = 42\n",
			},
			code: "E202",
		},
		{
			name: "unsupported method export",
			files: map[string]string{
				"src/routes/endpoint.go": "package route\n\nfunc Get() {}\n",
			},
			code: "E203",
		},
		{
			name: "non-callable method export",
			files: map[string]string{
				"src/routes/endpoint.go": "package route\n\nvar GET = \"hello\"\n",
			},
			code: "E204",
		},
		{
			name: "invalid pattern",
			files: map[string]string{
				"src/routes/[...rest]/more/endpoint.go": routeGET,
			},
			code: "E205",
		},
		{
			name: "duplicate route shapes",
			files: map[string]string{
				"src/routes/posts/[id]/endpoint.go": routeGET,
				"src/routes/posts/[slug]/route.go":  routeGET,
			},
			code: "E206",
		},
		{
			name: "artifact collision",
			files: map[string]string{
				"src/routes/[id]/endpoint.go":  routeGET,
				"src/routes/_id_/endpoint.go": routeGET,
			},
			mode: manifest.Build,
			code: "E206",
		},
		{
			name: "parse error",
			files: map[string]string{
				"src/routes/endpoint.go": "package route\n\nfunc GET( {\n",
			},
			code: "E207",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeProject(t, tt.files)
			mode := tt.mode
			if mode == "" {
				mode = manifest.Dev
			}
			b := newBuilder(cfg, mode)

			_, err := b.Build(context.Background())
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("Build() error = %v, want %s", err, tt.code)
			}
			if _, statErr := os.Stat(b.ManifestPath()); !os.IsNotExist(statErr) {
				t.Error("manifest written despite failure")
			}
		})
	}
}

func TestBuildArtifactCollisionAllowedInDevMode(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		"src/routes/[id]/endpoint.go":  routeGET,
		"src/routes/_id_/endpoint.go": routeGET,
	})
	if _, err := newBuilder(cfg, manifest.Dev).Build(context.Background()); err != nil {
		t.Errorf("Build() error = %v", err)
	}
}

func TestBuildTranspileFailureWritesNothing(t *testing.T) {
	cfg := writeProject(t, fullProject())
	b := New(cfg, Options{
		Mode:   manifest.Build,
		Logger: logging.Discard(),
		Transpiler: TranspilerFunc(func(path string, src []byte) ([]byte, error) {
			if strings.HasSuffix(path, "route.go") {
				return nil, stderrors.New("boom")
			}
			return src, nil
		}),
	})

	_, err := b.Build(context.Background())
	if !errors.HasCode(err, "E208") {
		t.Fatalf("Build() error = %v, want E208", err)
	}
	if _, err := os.Stat(cfg.OutputPath()); !os.IsNotExist(err) {
		t.Error("output directory created despite transpile failure")
	}
}

func TestBuildCanceled(t *testing.T) {
	cfg := writeProject(t, fullProject())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newBuilder(cfg, manifest.Dev).Build(ctx)
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestBuildReplacesStaleArtifacts(t *testing.T) {
	cfg := writeProject(t, fullProject())
	stale := filepath.Join(cfg.OutputPath(), "endpoints", "old", "endpoint.go")
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("package old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := newBuilder(cfg, manifest.Build).Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale artifact survived a build")
	}
}

func TestClean(t *testing.T) {
	cfg := writeProject(t, fullProject())
	b := newBuilder(cfg, manifest.Build)
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Clean(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cfg.OutputPath()); !os.IsNotExist(err) {
		t.Error("output directory still exists")
	}
}

func TestCleanRefusesProjectRoot(t *testing.T) {
	cfg := writeProject(t, fullProject())
	cfg.Build.Output = "."

	if err := newBuilder(cfg, manifest.Build).Clean(); !errors.HasCode(err, "E209") {
		t.Fatalf("Clean() error = %v, want E209", err)
	}
	if _, err := os.Stat(cfg.RoutesPath()); err != nil {
		t.Errorf("routes removed: %v", err)
	}
}

func TestScanParamsMissingDirectory(t *testing.T) {
	cfg := writeProject(t, map[string]string{"src/routes/endpoint.go": routeGET})
	params, err := newBuilder(cfg, manifest.Dev).ScanParams(context.Background())
	if err != nil || params != nil {
		t.Errorf("ScanParams() = %v, %v", params, err)
	}
}

func TestScanParamsNested(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		"src/params/ids/uuid.go": paramInt,
	})
	params, err := newBuilder(cfg, manifest.Dev).ScanParams(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 1 || params[0].Type != "ids/uuid" {
		t.Errorf("ScanParams() = %+v", params)
	}
}
