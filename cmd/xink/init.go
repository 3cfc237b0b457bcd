package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xink-dev/xink/internal/config"
	"github.com/xink-dev/xink/internal/errors"
)

func initCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Long: `Write xink.yaml (or xink.json) with the default settings into the
project directory.

Examples:
  xink init
  xink init --format=json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(flags, format, force)
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Config format: yaml or json")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

func runInit(flags *globalFlags, format string, force bool) error {
	dir := flags.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = wd
	}

	var name string
	switch format {
	case "yaml", "yml":
		name = "xink.yaml"
	case "json":
		name = "xink.json"
	default:
		return errors.New("E140").WithDetailf("--format must be yaml or json, got %q", format)
	}

	if config.Exists(dir) && !force {
		return errors.New("E140").
			WithDetail("a config file already exists in " + dir).
			WithSuggestion("Pass --force to overwrite it")
	}

	cfg := config.New()
	cfg.Name = filepath.Base(dir)
	path := filepath.Join(dir, name)
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	success("Wrote %s", path)
	return nil
}
