// Package errors provides a lightweight structured error type (PipelineError)
// for stage-based classification and retry semantics across the definitions
// pipeline and CLI.
package errors

import (
	"fmt"
)

// Category classifies a PipelineError by the pipeline stage that produced it.
type Category string

const (
	// Acquisition and parsing of the definitions document
	CategoryFetch Category = "fetch"
	CategoryParse Category = "parse"

	// Page generation and output
	CategoryGenerate   Category = "generate"
	CategoryFileSystem Category = "filesystem"

	// Supporting infrastructure
	CategoryState    Category = "state"
	CategoryWatch    Category = "watch"
	CategoryInternal Category = "internal"
)

// Severity indicates how critical an error is.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // Stops the pipeline
	SeverityError   Severity = "error"   // Fails the affected entry, batch continues
	SeverityWarning Severity = "warning" // Continues with degraded functionality
)

// PipelineError is a structured error with category, retryability, and context.
type PipelineError struct {
	Category  Category      `json:"category"`
	Severity  Severity      `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for PipelineError.
type ContextFields map[string]any

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new PipelineError.
func New(category Category, severity Severity, message string) *PipelineError {
	return &PipelineError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new PipelineError that wraps an existing error.
func Wrap(err error, category Category, severity Severity, message string) *PipelineError {
	return &PipelineError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// Retryable creates a new retryable PipelineError.
func Retryable(category Category, severity Severity, message string) *PipelineError {
	return &PipelineError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable PipelineError that wraps an existing error.
func WrapRetryable(err error, category Category, severity Severity, message string) *PipelineError {
	return &PipelineError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category.
func IsCategory(err error, category Category) bool {
	if pe, ok := err.(*PipelineError); ok {
		return pe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if pe, ok := err.(*PipelineError); ok {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// if it is not a PipelineError.
func GetCategory(err error) Category {
	if pe, ok := err.(*PipelineError); ok {
		return pe.Category
	}
	return CategoryInternal
}
