package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xink-dev/xink/internal/build"
	"github.com/xink-dev/xink/internal/dev"
)

func devCmd(flags *globalFlags) *cobra.Command {
	var (
		port     int
		host     string
		mainPkg  string
		noReload bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Watch the project and rebuild .xink/manifest.json on every change.

With --main (or dev.main in the config) the application package is also
rebuilt and restarted, and requests are proxied to it. Connected clients
on /_xink/reload are told to reload after each successful rebuild.

Examples:
  xink dev
  xink dev --main=./cmd/server
  xink dev --port=8080 --host=0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(flags, port, host, mainPkg, noReload)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&mainPkg, "main", "", "Application package to build and run (default from config)")
	cmd.Flags().BoolVar(&noReload, "no-reload", false, "Disable the reload socket")

	return cmd
}

func runDev(flags *globalFlags, port int, host, mainPkg string, noReload bool) error {
	cfg, logger, err := loadProject(flags)
	if err != nil {
		return err
	}

	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if mainPkg != "" {
		cfg.Dev.Main = mainPkg
	}
	if noReload {
		off := false
		cfg.Dev.Reload = &off
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Dev.Main != "" {
		if _, err := exec.LookPath("go"); err != nil {
			warn("Go is not installed or not in PATH")
			info("Install Go from https://go.dev/dl/")
			return err
		}
	}

	server, err := dev.NewServer(dev.ServerOptions{
		Config: cfg,
		Logger: logger,
		OnBuild: func(res *build.Result, err error) {
			if err == nil {
				success("Manifest rebuilt: %d routes", len(res.Routes))
			}
		},
		OnReload: func(clients int) {
			if clients > 0 {
				success("Reloaded %d clients", clients)
			}
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println()
	info("xink dev on %s", cfg.URL())
	if cfg.Dev.Main == "" {
		info("manifest-only mode; set --main to run the application")
	}
	fmt.Println()

	return server.Start(ctx)
}
