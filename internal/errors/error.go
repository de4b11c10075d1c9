package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/binding"
	"github.com/vango-dev/vbind/pkg/snapshot"
)

// Category represents the type of error.
type Category string

const (
	CategoryExpression Category = "expression"
	CategoryResource   Category = "resource"
	CategoryBinding    Category = "binding"
	CategoryLifecycle  Category = "lifecycle"
	CategoryStorage    Category = "storage"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// BindError is a structured error with a code, an explanation and a
// suggestion.
type BindError struct {
	// Code is a unique error identifier (e.g., "VB001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *BindError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *BindError) WithSuggestion(s string) *BindError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *BindError) WithDetail(d string) *BindError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *BindError) Wrap(err error) *BindError {
	e.Wrapped = err
	return e
}

// New creates a BindError from a registered error code.
func New(code string) *BindError {
	template, ok := registry[code]
	if !ok {
		return &BindError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &BindError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new BindError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *BindError {
	return &BindError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a BindError.
func FromError(err error, code string) *BindError {
	if err == nil {
		return nil
	}
	if be, ok := err.(*BindError); ok {
		return be
	}
	return New(code).Wrap(err)
}

// sentinels maps the errors of the binding packages to their codes. Order
// matters only for errors that wrap more than one sentinel; the first match
// wins.
var sentinels = []struct {
	err  error
	code string
}{
	{binding.ErrUnresolvedConverter, "VB001"},
	{binding.ErrUnresolvedBehavior, "VB002"},
	{binding.ErrUnresolvedSignaler, "VB003"},
	{binding.ErrDuplicateBehaviorApplication, "VB020"},
	{binding.ErrInvalidBindingMode, "VB021"},
	{binding.ErrNotBound, "VB022"},
	{binding.ErrUnsupportedOperation, "VB023"},
	{binding.ErrNotAFunction, "VB040"},
	{ast.ErrNotIterable, "VB041"},
	{ast.ErrInvalidTree, "VB042"},
	{vbind.ErrStarted, "VB060"},
	{snapshot.ErrNotFound, "VB080"},
	{snapshot.ErrInvalidDocument, "VB081"},
}

// Classify returns err as a BindError. A BindError anywhere in the chain is
// returned as is; a known sentinel gets its registered code; anything else
// is wrapped without a code.
func Classify(err error) *BindError {
	if err == nil {
		return nil
	}
	var be *BindError
	if stderrors.As(err, &be) {
		return be
	}
	for _, s := range sentinels {
		if stderrors.Is(err, s.err) {
			return New(s.code).Wrap(err)
		}
	}
	return &BindError{Category: CategoryCLI, Message: "Command failed", Wrapped: err}
}
