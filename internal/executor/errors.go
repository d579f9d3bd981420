package executor

import (
	"fmt"

	"github.com/vk/calcgrid/internal/nodeid"
)

// UsageError reports a contract violation by the caller: an unknown name,
// a write to a value, a frame opened while one is already open, and so on.
// The offending call mutates no state.
type UsageError struct {
	Op     string
	Detail string
}

// Error implements the error interface for UsageError.
func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

func usageErrf(op, format string, args ...any) *UsageError {
	return &UsageError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// ComputeError wraps a failure raised while recomputing one value, or the
// induced failure of a value whose dependency is in error. It is contained
// per node during a commit and reported through the CommitResult.
type ComputeError struct {
	Node  nodeid.Address
	Cause error
}

// Error implements the error interface for ComputeError.
func (e *ComputeError) Error() string {
	return fmt.Sprintf("computing %s: %v", e.Node, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *ComputeError) Unwrap() error {
	return e.Cause
}
