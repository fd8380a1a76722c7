// Package errors provides a lightweight structured error type (ForgeError)
// for category-based classification across the build pipeline and CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a RunnerForge error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig    ErrorCategory = "config"
	CategoryDiscovery ErrorCategory = "discovery"

	// Build and processing errors
	CategoryCompile    ErrorCategory = "compile"
	CategoryLoad       ErrorCategory = "load"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryPages      ErrorCategory = "pages"

	// Runtime and infrastructure errors
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// ForgeError is a structured error with category, severity, and context
type ForgeError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ForgeError
type ContextFields map[string]any

// Error implements the error interface
func (e *ForgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ForgeError) WithContext(key string, value any) *ForgeError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ForgeError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ForgeError {
	return &ForgeError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new ForgeError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ForgeError {
	return &ForgeError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsFatal reports whether err is (or wraps) a fatal ForgeError.
func IsFatal(err error) bool {
	var fe *ForgeError
	return stderrors.As(err, &fe) && fe.Severity == SeverityFatal
}

// CategoryOf returns the category of err when it is a ForgeError, or
// CategoryInternal otherwise.
func CategoryOf(err error) ErrorCategory {
	var fe *ForgeError
	if stderrors.As(err, &fe) {
		return fe.Category
	}
	return CategoryInternal
}
