// Package errors carries operation context for failures surfaced by the CLI
// and the HTTP API.
package errors

import (
	"fmt"
	"time"
)

// OperationalError wraps an error with the operation being performed and
// the workflow and node involved, if any.
type OperationalError struct {
	Operation string    // What operation was being performed
	Workflow  string    // Workflow name or file (may be empty)
	NodeID    string    // Node involved (may be empty)
	Timestamp time.Time // When the error occurred
	Cause     error     // Underlying error
}

// NewOperationalError wraps cause. Returns nil if cause is nil.
//
// Example:
//
//	if err != nil {
//	    return NewOperationalError("loading workflow", name, "", err)
//	}
func NewOperationalError(operation, workflow, nodeID string, cause error) *OperationalError {
	if cause == nil {
		return nil
	}
	return &OperationalError{
		Operation: operation,
		Workflow:  workflow,
		NodeID:    nodeID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// Error implements the error interface.
//
// Format: "operation: workflow={name} node={id}: {cause}", omitting empty parts.
func (e *OperationalError) Error() string {
	if e == nil {
		return "<nil OperationalError>"
	}

	msg := e.Operation
	if e.Workflow != "" {
		msg += fmt.Sprintf(": workflow=%s", e.Workflow)
	}
	if e.NodeID != "" {
		if e.Workflow == "" {
			msg += ":"
		}
		msg += fmt.Sprintf(" node=%s", e.NodeID)
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OperationalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
