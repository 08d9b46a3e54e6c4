package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryDefinition  Category = "definition"
	CategoryRuntime     Category = "runtime"
	CategoryPersistence Category = "persistence"
	CategoryConfig      Category = "config"
	CategoryCLI         Category = "cli"
)

// StoreError is a structured error with a code, suggestions, and documentation.
type StoreError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (definition, runtime, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Store is the name of the store the error relates to, if any.
	Store string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a StoreError with the same code.
// Errors without a code never match by code.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithStore records the store name the error relates to.
func (e *StoreError) WithStore(name string) *StoreError {
	e.Store = name
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *StoreError) WithSuggestion(s string) *StoreError {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *StoreError) WithExample(ex string) *StoreError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *StoreError) WithDetail(d string) *StoreError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *StoreError) WithDetailf(format string, args ...any) *StoreError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *StoreError) Wrap(err error) *StoreError {
	e.Wrapped = err
	return e
}

// New creates a StoreError from a registered error code.
func New(code string) *StoreError {
	template, ok := registry[code]
	if !ok {
		return &StoreError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StoreError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new StoreError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *StoreError {
	return &StoreError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a StoreError.
func FromError(err error, code string) *StoreError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*StoreError); ok {
		return se
	}
	return New(code).Wrap(err)
}
