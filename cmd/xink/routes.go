package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xink-dev/xink/internal/build"
	"github.com/xink-dev/xink/pkg/router"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List routes in match order",
		Long: `Scan the routes directory and list every route in the order the
router tries them. Nothing is written.

Examples:
  xink routes
  xink routes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(cmd.Context(), flags, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

type routeInfo struct {
	Pattern string   `json:"pattern"`
	Methods []string `json:"methods"`
	File    string   `json:"file"`
}

func runRoutes(ctx context.Context, flags *globalFlags, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, err := loadProject(flags)
	if err != nil {
		return err
	}

	routes, err := build.New(cfg, build.Options{Logger: logger}).ScanRoutes(ctx)
	if err != nil {
		return err
	}

	ordered, err := orderRoutes(routes)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ordered)
	}

	if len(ordered) == 0 {
		warn("No routes found in %s", cfg.Paths.Routes)
		return nil
	}
	for i, r := range ordered {
		fmt.Printf("%3d  %-40s %-28s %s\n", i+1, r.Pattern, joinMethods(r.Methods), r.File)
	}
	return nil
}

// orderRoutes sorts routes by match precedence using the runtime router.
func orderRoutes(routes []build.RouteFile) ([]routeInfo, error) {
	r := router.New()
	byPattern := make(map[string]build.RouteFile, len(routes))
	for _, route := range routes {
		if _, err := r.Register(route.Path); err != nil {
			return nil, err
		}
		byPattern[route.Pattern.String()] = route
	}

	out := make([]routeInfo, 0, len(routes))
	for _, pattern := range r.Routes() {
		route := byPattern[pattern]
		out = append(out, routeInfo{
			Pattern: route.Path,
			Methods: route.Methods,
			File:    route.Rel,
		})
	}
	return out, nil
}
