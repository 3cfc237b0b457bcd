package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xink-dev/xink/internal/config"
	"github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	dir       string
	logLevel  string
	logFormat string
}

func main() {
	flags := &globalFlags{}
	if err := newRootCmd(flags).Execute(); err != nil {
		reportError(os.Stderr, err, flags.logFormat)
		os.Exit(1)
	}
}

// reportError prints err for a terminal, or as one JSON object when the log
// format is json.
func reportError(w io.Writer, err error, format string) {
	if format != "json" {
		errors.PrintError(err)
		return
	}
	fmt.Fprintln(w, errors.FromError(err, "E140").FormatJSON())
}

func newRootCmd(flags *globalFlags) *cobra.Command {

	rootCmd := &cobra.Command{
		Use:   "xink",
		Short: "File-system routing for Go request handlers",
		Long: `xink maps a directory tree of Go route files onto URL patterns.

Each route file (endpoint.go or route.go) exports one function per HTTP
method. Directory names become path segments:

  [name]        dynamic segment
  [name=type]   typed segment, validated by src/params/<type>.go
  [[name]]      optional trailing segment
  [...name]     rest segment

The build writes a manifest that the xink runtime loads at startup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.dir, "dir", "C", "", "Project directory (default: nearest directory with a config file or go.mod)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log and error output format: text, json (default from config)")

	rootCmd.AddCommand(
		initCmd(flags),
		buildCmd(flags),
		devCmd(flags),
		routesCmd(flags),
		publishCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// loadProject loads the project config, applies global flag overrides and
// builds the logger.
func loadProject(flags *globalFlags) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.dir != "" {
		dir, absErr := filepath.Abs(flags.dir)
		if absErr != nil {
			return nil, nil, errors.New("E140").Wrap(absErr)
		}
		cfg, err = config.Load(dir)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	flags.logFormat = cfg.Log.Format

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, nil, errors.New("E121").Wrap(err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
