package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
	CategoryBuild    Category = "build"
	CategoryRoute    Category = "route"
	CategoryManifest Category = "manifest"
)

// Location represents a source code location.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// XinkError is a structured error with a code, source location and hint.
type XinkError struct {
	// Code is a unique error identifier (e.g., "E203").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, usually naming the offending value.
	Detail string

	// Location is the file (and position, when known) the error concerns.
	Location *Location

	// Context contains surrounding source code lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *XinkError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Location != nil {
		msg = e.Location.String() + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *XinkError) Unwrap() error {
	return e.Wrapped
}

// WithFile records the file the error concerns, without a position.
func (e *XinkError) WithFile(file string) *XinkError {
	e.Location = &Location{File: file}
	return e
}

// WithLocation adds source location to the error.
func (e *XinkError) WithLocation(file string, line, column int) *XinkError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, contextLines)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *XinkError) WithSuggestion(s string) *XinkError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *XinkError) WithDetail(d string) *XinkError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *XinkError) WithDetailf(format string, args ...any) *XinkError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *XinkError) Wrap(err error) *XinkError {
	e.Wrapped = err
	return e
}

// contextLines is how many source lines surround a reported location.
const contextLines = 5

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	if targetLine <= 0 {
		return nil
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates an XinkError from a registered error code.
func New(code string) *XinkError {
	template, ok := registry[code]
	if !ok {
		return &XinkError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &XinkError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new XinkError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *XinkError {
	return &XinkError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an XinkError. Errors that already
// carry an XinkError in their chain are returned unchanged.
func FromError(err error, code string) *XinkError {
	if err == nil {
		return nil
	}
	var xe *XinkError
	if stderrors.As(err, &xe) {
		return xe
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err, or an error it wraps, is an XinkError with code.
func HasCode(err error, code string) bool {
	var xe *XinkError
	for err != nil {
		if !stderrors.As(err, &xe) {
			return false
		}
		if xe.Code == code {
			return true
		}
		err = xe.Wrapped
	}
	return false
}
