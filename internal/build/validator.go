package build

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationErrorType categorizes route validation errors.
type ValidationErrorType string

const (
	// ErrorDuplicateRoute indicates multiple files compile to patterns that
	// match the same paths.
	// Example: blog/[id]/endpoint.go and blog/[slug]/route.go
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorArtifactCollision indicates two routes would be written to the
	// same build artifact.
	// Example: [id]/endpoint.go and _id_/endpoint.go
	ErrorArtifactCollision ValidationErrorType = "ARTIFACT_COLLISION"
)

// ValidationError represents a route validation error.
type ValidationError struct {
	// Type is the error category
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Files are the source files involved
	Files []string

	// Path is the conflicting pattern or artifact path
	Path string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (files: %s)", e.Type, e.Message, strings.Join(e.Files, ", "))
}

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validator checks scanned routes for conflicts between files.
type Validator struct {
	routes    []RouteFile
	artifacts bool
	errors    []ValidationError
}

// NewValidator creates a validator. With artifacts set, routes that would
// share a build artifact path are reported too.
func NewValidator(routes []RouteFile, artifacts bool) *Validator {
	return &Validator{routes: routes, artifacts: artifacts}
}

// Validate returns nil if all routes are valid, or a MultiValidationError
// listing every conflict.
func (v *Validator) Validate() error {
	v.errors = nil

	v.group(ErrorDuplicateRoute, func(r RouteFile) string { return r.Pattern.Shape() },
		func(key string, rs []RouteFile) string {
			return fmt.Sprintf("Duplicate route detected at %s", rs[0].Path)
		})

	if v.artifacts {
		v.group(ErrorArtifactCollision, func(r RouteFile) string { return r.Artifact },
			func(key string, _ []RouteFile) string {
				return fmt.Sprintf("Routes share the build artifact %s", key)
			})
	}

	if len(v.errors) > 0 {
		return &MultiValidationError{Errors: v.errors}
	}
	return nil
}

func (v *Validator) group(typ ValidationErrorType, key func(RouteFile) string, message func(string, []RouteFile) string) {
	byKey := make(map[string][]RouteFile)
	var order []string
	for _, r := range v.routes {
		k := key(r)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], r)
	}

	for _, k := range order {
		rs := byKey[k]
		if len(rs) <= 1 {
			continue
		}

		files := make([]string, len(rs))
		for i, r := range rs {
			files[i] = r.Rel
		}
		sort.Strings(files)

		v.errors = append(v.errors, ValidationError{
			Type:    typ,
			Message: message(k, rs),
			Files:   files,
			Path:    k,
		})
	}
}
