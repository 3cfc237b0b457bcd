package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check xink.json or xink.yaml for syntax errors",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E122": {
		Category:   CategoryConfig,
		Message:    "Configured path escapes the project root",
		Suggestion: "Use a path relative to the directory containing the config file",
	},
	"E123": {
		Category:   CategoryConfig,
		Message:    "Unsupported configuration format",
		Suggestion: "Use a .json, .yaml or .yml file",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Invalid command arguments",
	},
	"E141": {
		Category:   CategoryCLI,
		Message:    "Project root not found",
		Suggestion: "Run the command inside a directory containing xink.json, xink.yaml or go.mod",
	},
	"E142": {
		Category:   CategoryCLI,
		Message:    "Server failed to start",
		Suggestion: "Check that the port is free or choose another with --port",
	},
	"E143": {
		Category: CategoryCLI,
		Message:  "Build failed",
	},
	"E144": {
		Category:   CategoryCLI,
		Message:    "Publish target not configured",
		Suggestion: "Set publish.bucket in the config file or pass --bucket",
	},
	"E145": {
		Category: CategoryCLI,
		Message:  "File watcher failed",
	},
	"E146": {
		Category:   CategoryCLI,
		Message:    "Publish failed",
		Suggestion: "Check the bucket name, region, endpoint and AWS credentials",
	},

	// ============================================
	// Route Errors (E200-E219)
	// ============================================

	"E200": {
		Category:   CategoryRoute,
		Message:    "Routes directory not found",
		Suggestion: "Create the directory or set paths.routes in the config file",
	},
	"E201": {
		Category:   CategoryRoute,
		Message:    "Middleware file does not export Handle",
		Suggestion: "Add: func Handle(ev *endpoint.Event, resolve endpoint.Resolve) (*endpoint.Response, error)",
	},
	"E202": {
		Category:   CategoryRoute,
		Message:    "Middleware Handle is not a function",
		Suggestion: "Declare Handle as a top-level func",
	},
	"E203": {
		Category:   CategoryRoute,
		Message:    "Route exports an unsupported method",
		Suggestion: "Exported names must be one of GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS or Fallback",
	},
	"E204": {
		Category:   CategoryRoute,
		Message:    "Route export is not a function",
		Suggestion: "Declare method handlers as top-level funcs",
	},
	"E205": {
		Category: CategoryRoute,
		Message:  "Invalid route pattern",
	},
	"E206": {
		Category:   CategoryRoute,
		Message:    "Duplicate route",
		Suggestion: "Remove or rename one of the files",
	},
	"E207": {
		Category: CategoryBuild,
		Message:  "Source file could not be parsed",
	},
	"E208": {
		Category: CategoryBuild,
		Message:  "Source file could not be transpiled",
	},
	"E209": {
		Category: CategoryBuild,
		Message:  "Build artifact could not be written",
	},

	// ============================================
	// Manifest Errors (E220-E239)
	// ============================================

	"E220": {
		Category:   CategoryManifest,
		Message:    "Manifest not found",
		Suggestion: "Run xink build (or xink dev) before starting the server",
	},
	"E221": {
		Category:   CategoryManifest,
		Message:    "Route has no registered handlers",
		Suggestion: "Register the route's handlers before loading the manifest",
	},
	"E222": {
		Category:   CategoryManifest,
		Message:    "Manifest entry has no registered implementation",
		Suggestion: "Register every param matcher and the middleware before loading the manifest",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
