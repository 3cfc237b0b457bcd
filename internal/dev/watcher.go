package dev

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	// ChangeSource is a Go source file.
	ChangeSource ChangeType = iota
	// ChangeConfig is a project config file.
	ChangeConfig
	// ChangeOther is anything else, e.g. go.mod or an embedded asset.
	ChangeOther
)

func (t ChangeType) String() string {
	switch t {
	case ChangeSource:
		return "source"
	case ChangeConfig:
		return "config"
	default:
		return "other"
	}
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
	Op   fsnotify.Op
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories (or files) to watch, recursively.
	Paths []string

	// Ignore patterns to skip (names, globs or slash-separated segments).
	Ignore []string

	// Debounce is how long the tree must be quiet before a batch is
	// reported.
	Debounce time.Duration

	// Logger receives watch errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	"*_test.go",
	".git",
	".xink",
	"node_modules",
	"dist",
	"*.tmp",
	"*.swp",
	"*~",
	"4913",
}

// Watcher reports batches of file changes under a set of paths.
type Watcher struct {
	config   WatcherConfig
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	onChange func([]Change)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config: config,
		logger: logger.With("component", "watcher"),
		fsw:    fsw,
		stopCh: make(chan struct{}),
	}, nil
}

// OnChange sets the callback for change batches. Each batch holds one entry
// per path, sorted by path.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is canceled or Stop is called. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	defer w.fsw.Close()

	for _, p := range w.config.Paths {
		if err := w.addTree(p); err != nil {
			return err
		}
	}

	pending := make(map[string]Change)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-w.stopCh:
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event, pending) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.config.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.flush(pending)
			pending = make(map[string]Change)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// handleEvent records event and reports whether it counts as a change.
func (w *Watcher) handleEvent(event fsnotify.Event, pending map[string]Change) bool {
	if w.shouldIgnore(event.Name) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch new directory", "path", event.Name, "error", err)
			}
		}
	}

	prev, ok := pending[event.Name]
	if ok {
		event.Op |= prev.Op
	}
	pending[event.Name] = Change{
		Path: event.Name,
		Type: classifyChange(event.Name),
		Op:   event.Op,
	}
	return true
}

func (w *Watcher) flush(pending map[string]Change) {
	if len(pending) == 0 {
		return
	}

	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()
	if callback == nil {
		return
	}

	changes := make([]Change, 0, len(pending))
	for _, c := range pending {
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	callback(changes)
}

// addTree watches root and every directory below it. A missing root is
// skipped, as optional project directories may not exist yet.
func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		w.logger.Debug("watch path does not exist", "path", root)
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsw.Add(root)
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// relative returns fullPath relative to the watched path containing it.
func (w *Watcher) relative(fullPath string) string {
	for _, root := range w.config.Paths {
		rel, err := filepath.Rel(root, fullPath)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	return fullPath
}

// shouldIgnore checks if a path should be ignored. Patterns are matched
// against the path relative to its watch root.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(w.relative(fullPath))

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/") || strings.Contains(pattern, "\\")
		hasGlob := strings.ContainsAny(pattern, "*?[")

		if hasGlob {
			if hasPathSep {
				if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}

		if pathHasSegment(normalized, pattern) {
			return true
		}
	}

	return false
}

func pathHasSegment(p, segment string) bool {
	for _, part := range splitPathSegments(p) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}

// classifyChange determines the type of change from the file name.
func classifyChange(p string) ChangeType {
	switch name := filepath.Base(p); {
	case strings.EqualFold(filepath.Ext(name), ".go"):
		return ChangeSource
	case name == "xink.json", name == "xink.yaml", name == "xink.yml":
		return ChangeConfig
	default:
		return ChangeOther
	}
}
