package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xink-dev/xink/internal/errors"
)

const (
	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultRoutes is the default routes directory.
	DefaultRoutes = "src/routes"

	// DefaultParams is the default param matcher directory.
	DefaultParams = "src/params"

	// DefaultMiddleware is the default middleware file.
	DefaultMiddleware = "src/middleware.go"

	// DefaultDebounce is the default delay between a file change and a
	// dev rebuild.
	DefaultDebounce = "100ms"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"
)

// FileNames are the config file names looked up in a project root, in order.
var FileNames = []string{"xink.json", "xink.yaml", "xink.yml"}

// Config represents the complete xink configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Paths locates routes, params and middleware.
	Paths PathsConfig `json:"paths,omitempty" yaml:"paths,omitempty"`

	// Build contains production build configuration.
	Build BuildConfig `json:"build,omitempty" yaml:"build,omitempty"`

	// Server contains the HTTP server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Dev contains dev mode configuration.
	Dev DevConfig `json:"dev,omitempty" yaml:"dev,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Publish contains the upload target for build output.
	Publish PublishConfig `json:"publish,omitempty" yaml:"publish,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string

	// root is the project root when no config file exists.
	root string
}

// PathsConfig contains path configuration for project directories.
type PathsConfig struct {
	// Routes is the directory holding endpoint files.
	Routes string `json:"routes,omitempty" yaml:"routes,omitempty"`

	// Params is the directory holding param matcher files.
	Params string `json:"params,omitempty" yaml:"params,omitempty"`

	// Middleware is the middleware file.
	Middleware string `json:"middleware,omitempty" yaml:"middleware,omitempty"`
}

// BuildConfig contains production build settings.
type BuildConfig struct {
	// Output is the output directory for builds.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// Metrics enables the Prometheus middleware and endpoint.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// MetricsPath is the URL path of the metrics endpoint.
	MetricsPath string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`

	// Tracing enables the OpenTelemetry middleware.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// DevConfig contains dev mode settings.
type DevConfig struct {
	// Watch lists extra directories to watch besides routes and params.
	Watch []string `json:"watch,omitempty" yaml:"watch,omitempty"`

	// Debounce is how long to wait after a change before rebuilding.
	Debounce string `json:"debounce,omitempty" yaml:"debounce,omitempty"`

	// Reload enables the reload WebSocket.
	Reload *bool `json:"reload,omitempty" yaml:"reload,omitempty"`

	// Main is the Go package of the application, relative to the project
	// root. When set, dev mode builds and restarts it after every change
	// and proxies requests to it. Empty means manifest-only.
	Main string `json:"main,omitempty" yaml:"main,omitempty"`

	// Ignore lists extra watcher ignore patterns.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// PublishConfig contains the S3 upload target.
type PublishConfig struct {
	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from dir. The first of FileNames that exists is
// used; when none exists the defaults apply with dir as the project root.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	cfg := New()
	cfg.root = dir
	return cfg, nil
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, errors.New("E123").WithFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No config file found at " + path)
		}
		return nil, errors.New("E120").WithFile(path).Wrap(err)
	}

	cfg := &Config{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithFile(path).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to path, as YAML or JSON by extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New("E123").WithFile(path)
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the project root: the directory containing the config file,
// or the directory passed to Load when there was none.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return c.root
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Paths.Routes == "" {
		c.Paths.Routes = DefaultRoutes
	}
	if c.Paths.Params == "" {
		c.Paths.Params = DefaultParams
	}
	if c.Paths.Middleware == "" {
		c.Paths.Middleware = DefaultMiddleware
	}

	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}

	if c.Dev.Debounce == "" {
		c.Dev.Debounce = DefaultDebounce
	}
	if c.Dev.Reload == nil {
		on := true
		c.Dev.Reload = &on
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E121").
			WithDetail("server.port must be between 0 and 65535")
	}

	if _, err := time.ParseDuration(c.Dev.Debounce); err != nil {
		return errors.New("E121").
			WithDetail("dev.debounce: " + err.Error())
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E121").
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E121").
			WithDetailf("log.format %q is not one of text, json", c.Log.Format)
	}

	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return errors.New("E121").
			WithDetail("server.metricsPath must start with /")
	}

	for name, p := range map[string]string{
		"paths.routes":     c.Paths.Routes,
		"paths.params":     c.Paths.Params,
		"paths.middleware": c.Paths.Middleware,
	} {
		if escapesRoot(p) {
			return errors.New("E122").WithDetail(name + ": " + p)
		}
	}
	if c.Dev.Main != "" && escapesRoot(c.Dev.Main) {
		return errors.New("E122").WithDetail("dev.main: " + c.Dev.Main)
	}

	return nil
}

func escapesRoot(p string) bool {
	if filepath.IsAbs(p) {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	return clean == ".." || strings.HasPrefix(clean, "../")
}

// DebounceDuration returns Dev.Debounce parsed, or the default on error.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Dev.Debounce)
	if err != nil {
		d, _ = time.ParseDuration(DefaultDebounce)
	}
	return d
}

// ReloadEnabled reports whether the dev reload socket is on.
func (c *Config) ReloadEnabled() bool {
	return c.Dev.Reload == nil || *c.Dev.Reload
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// AppAddress returns where the application listens behind the dev proxy.
func (c *Config) AppAddress() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port+1)
}

// URL returns the base URL of the server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

func (c *Config) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	return c.abs(c.Build.Output)
}

// RoutesPath returns the absolute path to the routes directory.
func (c *Config) RoutesPath() string {
	return c.abs(c.Paths.Routes)
}

// ParamsPath returns the absolute path to the param matcher directory.
func (c *Config) ParamsPath() string {
	return c.abs(c.Paths.Params)
}

// MiddlewarePath returns the absolute path to the middleware file.
func (c *Config) MiddlewarePath() string {
	return c.abs(c.Paths.Middleware)
}

// WatchPaths returns the absolute directories watched in dev mode.
func (c *Config) WatchPaths() []string {
	paths := []string{c.RoutesPath(), c.ParamsPath(), filepath.Dir(c.MiddlewarePath())}
	if c.Dev.Main != "" {
		paths = append(paths, c.abs(c.Dev.Main))
	}
	for _, w := range c.Dev.Watch {
		paths = append(paths, c.abs(w))
	}

	seen := make(map[string]bool)
	out := paths[:0]
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

func isRoot(dir string) bool {
	if Exists(dir) {
		return true
	}
	_, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root: the first
// directory containing a config file or a go.mod.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if isRoot(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No xink.json, xink.yaml or go.mod found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration for the project containing the
// current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
