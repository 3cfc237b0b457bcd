package build

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xink-dev/xink/internal/config"
	"github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/internal/logging"
	"github.com/xink-dev/xink/pkg/manifest"
	"github.com/xink-dev/xink/pkg/routepath"
)

// Options configures the builder.
type Options struct {
	// Mode selects dev (reference sources) or build (write artifacts).
	// Defaults to manifest.Build.
	Mode manifest.Mode

	// Transpiler produces build-mode artifacts. Defaults to GoFormat.
	Transpiler Transpiler

	// Logger receives per-file debug logs. Defaults to slog.Default().
	Logger *slog.Logger

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// ParamFile is a param matcher source file.
type ParamFile struct {
	// Type is the matcher name used in [name=type] segments.
	Type string

	// Source is the absolute source path.
	Source string

	// Rel is the source path relative to the project root.
	Rel string
}

// MiddlewareFile is the middleware source file.
type MiddlewareFile struct {
	Source string
	Rel    string
}

// RouteFile is a validated route source file.
type RouteFile struct {
	// Path is the compiled pattern string.
	Path string

	// Pattern is the parsed pattern.
	Pattern routepath.Pattern

	// Source is the absolute source path.
	Source string

	// Rel is the source path relative to the project root.
	Rel string

	// Artifact is the build artifact path relative to the output directory.
	Artifact string

	// Methods are the handler keys the file exports, sorted.
	Methods []string
}

// Result contains the build output.
type Result struct {
	// Manifest is the written manifest.
	Manifest *manifest.Manifest

	// Path is where the manifest was written.
	Path string

	// Routes are the scanned routes.
	Routes []RouteFile

	// Artifacts are the files written to the output directory (build mode).
	Artifacts []string

	// Duration is how long the build took.
	Duration time.Duration
}

// Builder produces the route manifest.
type Builder struct {
	config  *config.Config
	options Options
	logger  *slog.Logger
}

// New creates a new builder.
func New(cfg *config.Config, options Options) *Builder {
	if options.Mode == "" {
		options.Mode = manifest.Build
	}
	if options.Transpiler == nil {
		options.Transpiler = GoFormat
	}

	return &Builder{
		config:  cfg,
		options: options,
		logger:  logging.Component(options.Logger, "build"),
	}
}

// ManifestPath returns where Build writes the manifest.
func (b *Builder) ManifestPath() string {
	return manifest.Path(b.config.Dir(), b.options.Mode, b.config.OutputPath())
}

// Build scans params, middleware and routes and writes the manifest. Any
// validation failure aborts before anything is written.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	b.progress("Scanning params...")
	params, err := b.ScanParams(ctx)
	if err != nil {
		return nil, err
	}

	b.progress("Scanning middleware...")
	mw, err := b.ScanMiddleware(ctx)
	if err != nil {
		return nil, err
	}

	b.progress("Scanning routes...")
	routes, err := b.ScanRoutes(ctx)
	if err != nil {
		return nil, err
	}

	dev := b.options.Mode == manifest.Dev
	if err := NewValidator(routes, !dev).Validate(); err != nil {
		return nil, errors.New("E206").Wrap(err)
	}

	m := manifest.New()
	result := &Result{Manifest: m, Routes: routes}

	var pending []artifact
	for _, p := range params {
		if dev {
			m.Params[p.Type] = p.Rel
			continue
		}
		rel := path.Join("params", p.Type+".go")
		m.Params[p.Type] = rel
		pending = append(pending, artifact{source: p.Source, rel: rel})
	}

	if mw != nil {
		if dev {
			m.SetMiddleware(mw.Rel)
		} else {
			m.SetMiddleware("middleware.go")
			pending = append(pending, artifact{source: mw.Source, rel: "middleware.go"})
		}
	}

	for _, r := range routes {
		if dev {
			m.Routes[r.Rel] = manifest.Route{Path: r.Path, File: r.Rel}
			continue
		}
		m.Routes[r.Artifact] = manifest.Route{Path: r.Path, File: r.Artifact}
		pending = append(pending, artifact{source: r.Source, rel: r.Artifact})
	}

	if !dev {
		b.progress("Writing artifacts...")
		written, err := b.writeArtifacts(ctx, pending)
		if err != nil {
			return nil, err
		}
		result.Artifacts = written
	}

	b.progress("Writing manifest...")
	result.Path = b.ManifestPath()
	if err := m.Write(result.Path); err != nil {
		return nil, errors.New("E209").WithFile(result.Path).Wrap(err)
	}

	result.Duration = time.Since(start)
	b.logger.Info("manifest written",
		"mode", b.options.Mode,
		"path", result.Path,
		"routes", len(m.Routes),
		"params", len(m.Params),
		"middleware", m.Middleware != nil,
		"duration", result.Duration)

	return result, nil
}

// Clean removes the build output directory.
func (b *Builder) Clean() error {
	if err := b.checkOutDir(); err != nil {
		return err
	}
	if err := os.RemoveAll(b.config.OutputPath()); err != nil {
		return errors.New("E209").WithFile(b.config.OutputPath()).Wrap(err)
	}
	return nil
}

// ScanParams finds param matcher files: every .go file under the params
// directory that exports a Match func. Files without one are skipped. A
// missing params directory yields no matchers.
func (b *Builder) ScanParams(ctx context.Context) ([]ParamFile, error) {
	root := b.config.ParamsPath()
	if !isDir(root) {
		b.logger.Debug("no params directory", "path", root)
		return nil, nil
	}

	var out []ParamFile
	err := walkGo(ctx, root, func(file, rel string) error {
		exports, err := readExports(file)
		if err != nil {
			return err
		}

		match, ok := find(exports, "Match")
		if !ok || !match.Callable {
			b.logger.Debug("skipping param file without Match func", "file", file)
			return nil
		}

		p := ParamFile{
			Type:   strings.TrimSuffix(rel, ".go"),
			Source: file,
			Rel:    b.rel(file),
		}
		b.logger.Debug("param", "type", p.Type, "file", p.Rel)
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScanMiddleware checks the middleware file. It returns nil when the file
// does not exist; a file without a Handle func is an error.
func (b *Builder) ScanMiddleware(ctx context.Context) (*MiddlewareFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file := b.config.MiddlewarePath()
	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		b.logger.Debug("no middleware", "path", file)
		return nil, nil
	}

	exports, err := readExports(file)
	if err != nil {
		return nil, err
	}

	handle, ok := find(exports, "Handle")
	if !ok {
		return nil, errors.New("E201").WithFile(file)
	}
	if !handle.Callable {
		return nil, errors.New("E202").
			WithLocation(file, handle.Pos.Line, handle.Pos.Column).
			WithDetailf("Handle is a %s", handle.Kind)
	}

	b.logger.Debug("middleware", "file", b.rel(file))
	return &MiddlewareFile{Source: file, Rel: b.rel(file)}, nil
}

// ScanRoutes compiles every route file under the routes directory and
// validates its exports.
func (b *Builder) ScanRoutes(ctx context.Context) ([]RouteFile, error) {
	root := b.config.RoutesPath()
	if !isDir(root) {
		return nil, errors.New("E200").WithFile(root)
	}

	var out []RouteFile
	err := walkGo(ctx, root, func(file, rel string) error {
		if !routepath.IsMarker(path.Base(rel)) {
			return nil
		}

		pattern := routepath.Compile(rel)
		parsed, err := routepath.Parse(pattern)
		if err != nil {
			return errors.New("E205").WithFile(file).WithDetail(pattern).Wrap(err)
		}

		methods, err := b.routeMethods(file, pattern)
		if err != nil {
			return err
		}

		r := RouteFile{
			Path:     parsed.String(),
			Pattern:  parsed,
			Source:   file,
			Rel:      b.rel(file),
			Artifact: artifactPath(parsed.String()),
			Methods:  methods,
		}
		b.logger.Debug("route", "pattern", r.Path, "file", r.Rel, "methods", methods)
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Builder) routeMethods(file, pattern string) ([]string, error) {
	exports, err := readExports(file)
	if err != nil {
		return nil, err
	}

	var methods []string
	for _, e := range exports {
		if e.Kind == ExportType {
			continue
		}
		key, ok := MethodKey(e.Name)
		if !ok {
			return nil, errors.New("E203").
				WithLocation(file, e.Pos.Line, e.Pos.Column).
				WithDetailf("xink does not support the %s endpoint handler (route %s)", e.Name, pattern)
		}
		if !e.Callable {
			return nil, errors.New("E204").
				WithLocation(file, e.Pos.Line, e.Pos.Column).
				WithDetailf("Handler %s for %s is a %s", e.Name, pattern, e.Kind)
		}
		methods = append(methods, key)
	}
	sort.Strings(methods)
	return methods, nil
}

// artifactPath is the build artifact for a pattern, relative to the output
// directory.
func artifactPath(pattern string) string {
	dir := routepath.SafeDir(pattern)
	if dir == "" {
		return "endpoints/endpoint.go"
	}
	return path.Join("endpoints", dir, "endpoint.go")
}

type artifact struct {
	source string
	rel    string
}

// writeArtifacts transpiles every source before writing any file.
func (b *Builder) writeArtifacts(ctx context.Context, pending []artifact) ([]string, error) {
	outDir := b.config.OutputPath()
	outputs := make([][]byte, len(pending))

	for i, a := range pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := os.ReadFile(a.source)
		if err != nil {
			return nil, errors.New("E208").WithFile(a.source).Wrap(err)
		}
		out, err := b.options.Transpiler.Transpile(a.source, src)
		if err != nil {
			return nil, errors.New("E208").WithFile(a.source).Wrap(err)
		}
		outputs[i] = out
	}

	if err := b.checkOutDir(); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(outDir); err != nil {
		return nil, errors.New("E209").WithFile(outDir).Wrap(err)
	}

	written := make([]string, 0, len(pending))
	for i, a := range pending {
		dest := filepath.Join(outDir, filepath.FromSlash(a.rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return nil, errors.New("E209").WithFile(dest).Wrap(err)
		}
		if err := os.WriteFile(dest, outputs[i], 0644); err != nil {
			return nil, errors.New("E209").WithFile(dest).Wrap(err)
		}
		b.logger.Debug("artifact", "source", b.rel(a.source), "dest", a.rel)
		written = append(written, a.rel)
	}
	return written, nil
}

// checkOutDir refuses output directories that would remove project sources
// when cleaned.
func (b *Builder) checkOutDir() error {
	out := filepath.Clean(b.config.OutputPath())
	for _, src := range []string{b.config.Dir(), b.config.RoutesPath(), b.config.ParamsPath(), b.config.MiddlewarePath()} {
		if within(out, filepath.Clean(src)) {
			return errors.New("E209").
				WithFile(out).
				WithDetail("output directory contains project sources: " + b.rel(src))
		}
	}
	return nil
}

// within reports whether p is dir or inside it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// rel returns file relative to the project root with forward slashes.
func (b *Builder) rel(file string) string {
	rel, err := filepath.Rel(b.config.Dir(), file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// progress reports a progress update.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func readExports(file string) ([]Export, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.New("E207").WithFile(file).Wrap(err)
	}
	return Exports(file, src)
}

// walkGo calls fn for every non-test .go file under root in lexical order,
// with rel relative to root using forward slashes.
func walkGo(ctx context.Context, root string, fn func(file, rel string) error) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(p, ".go") || strings.HasSuffix(p, "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		return fn(p, filepath.ToSlash(rel))
	})
}
