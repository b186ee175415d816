// Package errors provides cotton's structured error type for the CLI,
// configuration and build tooling. Errors carry a short code, a
// category, and an optional suggestion so the terminal output can point
// at a fix instead of dumping a stack.
//
// The request-dispatch core does not use this package: its diagnostics
// are plain strings by contract, inlined into responses.
package errors

import (
	"fmt"
)

// Category classifies an error by the subsystem it came from.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryBuild  Category = "build"
	CategoryDev    Category = "dev"
	CategoryDeploy Category = "deploy"
	CategoryCLI    Category = "cli"
)

// CottonError is a structured error with a code, category and fix
// suggestion.
type CottonError struct {
	// Code is a unique error identifier (e.g. "C101").
	Code string

	// Category is the subsystem the error belongs to.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *CottonError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *CottonError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a longer explanation to the error.
func (e *CottonError) WithDetail(detail string) *CottonError {
	e.Detail = detail
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *CottonError) WithSuggestion(s string) *CottonError {
	e.Suggestion = s
	return e
}

// Wrap attaches an underlying error.
func (e *CottonError) Wrap(err error) *CottonError {
	e.Wrapped = err
	return e
}

// New creates an error from a registered code. Unknown codes produce a
// generic CLI error naming the code.
func New(code string) *CottonError {
	if tmpl, ok := registry[code]; ok {
		return &CottonError{
			Code:     code,
			Category: tmpl.Category,
			Message:  tmpl.Message,
			Detail:   tmpl.Detail,
		}
	}
	return &CottonError{
		Code:     code,
		Category: CategoryCLI,
		Message:  "unknown error",
	}
}

// Newf creates an ad-hoc error with a formatted message.
func Newf(category Category, format string, args ...any) *CottonError {
	return &CottonError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// template defines a registered error code.
type template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]template{
	// Config errors (C1xx)
	"C101": {
		Category: CategoryConfig,
		Message:  "configuration file not found",
		Detail:   "cotton looks for cotton.json or cotton.yaml in the project directory.",
	},
	"C102": {
		Category: CategoryConfig,
		Message:  "configuration file is invalid",
	},
	"C103": {
		Category: CategoryConfig,
		Message:  "route table is invalid",
		Detail:   "Route keys must start with '/' and be unique; declaration order decides matching ties.",
	},

	// Build errors (C2xx)
	"C201": {
		Category: CategoryBuild,
		Message:  "build failed",
	},
	"C202": {
		Category: CategoryBuild,
		Message:  "output directory could not be prepared",
	},
	"C203": {
		Category: CategoryDeploy,
		Message:  "deploy failed",
		Detail:   "The build output could not be uploaded to the configured bucket.",
	},

	// Dev server errors (C3xx)
	"C301": {
		Category: CategoryDev,
		Message:  "development server failed to start",
	},
	"C302": {
		Category: CategoryDev,
		Message:  "application process exited unexpectedly",
	},
}
