// Package manifest is the build artifact handed from the builder to the
// server: the compiled routes, the param matcher files and the middleware
// file.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Mode selects where the manifest lives and how its file references are
// interpreted.
type Mode string

const (
	// Dev references source files relative to the project root.
	Dev Mode = "dev"

	// Build references generated artifacts relative to the output directory.
	Build Mode = "build"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == Dev || m == Build
}

// Route is a compiled route file.
type Route struct {
	// Path is the compiled pattern, e.g. "/blog/:slug".
	Path string `json:"path"`

	// File is the module reference for the route.
	File string `json:"file"`
}

// Manifest is the persisted result of a build.
type Manifest struct {
	Routes     map[string]Route  `json:"routes"`
	Params     map[string]string `json:"params"`
	Middleware *string           `json:"middleware"`
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{
		Routes: make(map[string]Route),
		Params: make(map[string]string),
	}
}

// DevDir is the directory, relative to the project root, that holds the dev
// manifest.
const DevDir = ".xink"

// FileName is the manifest file name in both modes.
const FileName = "manifest.json"

// Path returns where the manifest for mode is stored.
func Path(root string, mode Mode, outDir string) string {
	if mode == Build {
		return filepath.Join(outDir, FileName)
	}
	return filepath.Join(root, DevDir, FileName)
}

// Read loads a manifest from disk.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m := New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Routes == nil {
		m.Routes = make(map[string]Route)
	}
	if m.Params == nil {
		m.Params = make(map[string]string)
	}
	return m, nil
}

// Write stores the manifest as indented JSON, creating parent directories.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Keys returns the route keys in sorted order.
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, len(m.Routes))
	for k := range m.Routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParamTypes returns the param type names in sorted order.
func (m *Manifest) ParamTypes() []string {
	types := make([]string, 0, len(m.Params))
	for k := range m.Params {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// SetMiddleware records the middleware file.
func (m *Manifest) SetMiddleware(file string) {
	m.Middleware = &file
}
