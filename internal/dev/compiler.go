package dev

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xink-dev/xink"
	"github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/pkg/manifest"
)

// stopGrace is how long a stopped process gets before it is killed.
const stopGrace = 5 * time.Second

// processSpec describes the application process to start.
type processSpec struct {
	Binary string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// CompilerConfig configures the application compiler.
type CompilerConfig struct {
	// ProjectPath is the root directory of the project.
	ProjectPath string

	// Package is the main package to build, relative to ProjectPath.
	Package string

	// BinaryPath is where to write the compiled binary.
	BinaryPath string

	// Env are additional environment variables for build and run.
	Env []string

	// Stdout and Stderr receive the application's output. Default to the
	// process's own.
	Stdout io.Writer
	Stderr io.Writer
}

// BuildResult contains the result of a build.
type BuildResult struct {
	// Success indicates if the build succeeded.
	Success bool

	// Duration is how long the build took.
	Duration time.Duration

	// Output is the compiler output.
	Output string

	// Error is the build error, if any.
	Error error
}

// Compiler builds the application with the go tool and manages its
// process.
type Compiler struct {
	config  CompilerConfig
	process *processHandle
	mu      sync.Mutex
}

// NewCompiler creates a new compiler.
func NewCompiler(config CompilerConfig) *Compiler {
	if config.Package == "" {
		config.Package = "."
	}
	if config.BinaryPath == "" {
		config.BinaryPath = filepath.Join(config.ProjectPath, manifest.DevDir, "server")
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	return &Compiler{config: config}
}

// Build compiles the application.
func (c *Compiler) Build(ctx context.Context) BuildResult {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(c.config.BinaryPath), 0755); err != nil {
		return BuildResult{
			Duration: time.Since(start),
			Error:    errors.New("E143").Wrap(err),
		}
	}

	pkg := c.config.Package
	if !filepath.IsAbs(pkg) && !strings.HasPrefix(pkg, ".") {
		pkg = "./" + filepath.ToSlash(pkg)
	}

	cmd := exec.CommandContext(ctx, "go", "build", "-o", c.config.BinaryPath, pkg)
	cmd.Dir = c.config.ProjectPath
	cmd.Env = append(os.Environ(), c.config.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start)

	output := stderr.String()
	if output == "" {
		output = stdout.String()
	}

	if err != nil {
		return BuildResult{
			Duration: duration,
			Output:   output,
			Error:    errors.New("E143").WithDetail(output).Wrap(err),
		}
	}

	return BuildResult{
		Success:  true,
		Duration: duration,
		Output:   output,
	}
}

// Start runs the compiled binary listening on addr, replacing any running
// process.
func (c *Compiler) Start(ctx context.Context, addr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.process != nil {
		stopProcess(c.process)
		c.process = nil
	}

	env := append(os.Environ(), c.config.Env...)
	env = append(env, xink.EnvDev+"=1", xink.EnvAddr+"="+addr)

	proc, err := startProcess(ctx, processSpec{
		Binary: c.config.BinaryPath,
		Dir:    c.config.ProjectPath,
		Env:    env,
		Stdout: c.config.Stdout,
		Stderr: c.config.Stderr,
	})
	if err != nil {
		return errors.New("E142").WithDetail(c.config.BinaryPath).Wrap(err)
	}

	c.process = proc
	return nil
}

// Stop stops the running process.
func (c *Compiler) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.process != nil {
		stopProcess(c.process)
		c.process = nil
	}
}

// IsRunning returns whether the process is running.
func (c *Compiler) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.process != nil
}

// BinaryPath returns the path to the compiled binary.
func (c *Compiler) BinaryPath() string {
	return c.config.BinaryPath
}

// Clean stops the process and removes the binary.
func (c *Compiler) Clean() error {
	c.Stop()
	if err := os.Remove(c.config.BinaryPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
