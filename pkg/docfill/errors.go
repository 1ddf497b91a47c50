// Package docfill provides custom error types for better error handling and reporting.
package docfill

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDocument is wrapped by every error caused by input that is not a
// readable DOCX package.
var ErrInvalidDocument = errors.New("cannot parse document")

// DocumentError represents an error during document operations
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Path, e.Cause)
	} else if e.Path != "" {
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Path)
	} else if e.Cause != nil {
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// Problem is one unbalanced placeholder found while rendering.
type Problem struct {
	Part        string
	Explanation string
}

// RenderError reports placeholders that could not be resolved because their
// delimiters do not pair up. No output is produced when it is returned.
type RenderError struct {
	Problems []Problem
}

// Explanations returns the explanation of every problem, in document order.
func (e *RenderError) Explanations() []string {
	out := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p.Explanation
	}
	return out
}

// Details joins all explanations into one message for display.
func (e *RenderError) Details() string {
	return strings.Join(e.Explanations(), " | ")
}

func (e *RenderError) Error() string {
	if len(e.Problems) == 0 {
		return "render error"
	}
	return "render error: " + e.Details()
}

// IsDocumentError checks if an error is or wraps a document error
func IsDocumentError(err error) bool {
	var de *DocumentError
	return errors.As(err, &de)
}

// IsRenderError checks if an error is or wraps a render error
func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}
