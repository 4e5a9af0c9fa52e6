package execution

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrAlreadyRunning is returned when Run is called while a run is in flight.
	ErrAlreadyRunning = errors.New("a run is already in progress")
	// ErrMaxDepthExceeded is recorded on a node reached deeper than the
	// configured maximum traversal depth, which usually means a cycle.
	ErrMaxDepthExceeded = errors.New("maximum traversal depth exceeded")
	// ErrNilGraph is the cause of a driver error for a nil graph.
	ErrNilGraph = errors.New("graph is nil")
)

// DriverError is a failure of the traversal itself rather than of a node.
// A run that ends in a DriverError records no snapshot.
type DriverError struct {
	RunID string
	Op    string // "validate", "traverse" or "record"
	Cause error
	Stack string // set when the cause was a panic
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("run %s: %s: %v", e.RunID, e.Op, e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DriverError) Unwrap() error {
	return e.Cause
}

// IsDriverError reports whether err is or wraps a DriverError.
func IsDriverError(err error) bool {
	var de *DriverError
	return errors.As(err, &de)
}
