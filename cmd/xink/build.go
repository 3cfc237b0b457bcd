package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/xink-dev/xink/internal/build"
	"github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/pkg/manifest"
)

func buildCmd(flags *globalFlags) *cobra.Command {
	var (
		output string
		mode   string
		clean  bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the route manifest",
		Long: `Scan the routes, params and middleware and write the manifest.

In build mode (the default) every source is also written, formatted, under
the output directory and the manifest points at those copies. In dev mode
only .xink/manifest.json is written and it points at the sources.

Examples:
  xink build
  xink build --output=out
  xink build --mode=dev`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(flags, output, mode, clean)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVar(&mode, "mode", string(manifest.Build), "Build mode: build or dev")
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove the output directory before building")

	return cmd
}

func runBuild(flags *globalFlags, output, mode string, clean bool) error {
	m := manifest.Mode(mode)
	if !m.Valid() {
		return errors.New("E140").WithDetailf("--mode must be build or dev, got %q", mode)
	}

	cfg, logger, err := loadProject(flags)
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Build.Output = output
	}

	builder := build.New(cfg, build.Options{
		Mode:   m,
		Logger: logger,
		OnProgress: func(step string) {
			info("%s", step)
		},
	})

	if clean {
		info("Cleaning output directory...")
		if err := builder.Clean(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Built %d routes in %s", len(result.Routes), result.Duration.Round(time.Millisecond))
	fmt.Println()
	printRoutes(result.Routes)
	fmt.Println()
	info("Manifest: %s", result.Path)
	return nil
}

func printRoutes(routes []build.RouteFile) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  PATTERN\tMETHODS\tFILE")
	for _, r := range routes {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", r.Path, joinMethods(r.Methods), r.Rel)
	}
	w.Flush()
}

func joinMethods(methods []string) string {
	if len(methods) == 0 {
		return "-"
	}
	out := methods[0]
	for _, m := range methods[1:] {
		out += ", " + m
	}
	return out
}
