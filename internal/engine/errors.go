package engine

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a workflow does not resolve for the tenant. A
// path that walks into a dangling node reference is not an error; it yields
// a partial path instead.
var ErrNotFound = errors.New("workflow not found")

// ValidationError reports a structural problem in a workflow graph or an
// out-of-range field value. The caller can recover by correcting the input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "workflow validation failed: " + e.Reason
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a state conflict: duplicate name on create,
// overlapping active scope on publish, or a lifecycle change blocked by
// referencing requisitions.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// MaxStepsExceededError reports that walking a graph exceeded the node-count
// bound, which can only happen when the graph contains a cycle.
type MaxStepsExceededError struct {
	WorkflowID string
	Steps      int
}

func (e *MaxStepsExceededError) Error() string {
	return fmt.Sprintf("workflow %s: path exceeded %d steps, graph contains a cycle", e.WorkflowID, e.Steps)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsMaxStepsExceeded(err error) bool {
	var me *MaxStepsExceededError
	return errors.As(err, &me)
}
