package pathrunner

import (
	"errors"
	"fmt"
)

// ErrExecutorClosed is returned when tasks are submitted to an executor
// that has already been released.
var ErrExecutorClosed = errors.New("executor already closed")

// NotDirectoryError reports that an operation requiring a directory was
// invoked on a path that is not one.
type NotDirectoryError struct {
	Path string
}

// Error implements the error interface for NotDirectoryError.
func (e *NotDirectoryError) Error() string {
	return fmt.Sprintf("path %s is not a directory", e.Path)
}

// TaskError represents a failure while executing the caller's function
// against a single path. The batch that contained the task is aborted;
// no partial results are returned alongside a TaskError.
type TaskError struct {
	Path string // Path the task was running against
	Err  error  // Underlying failure (or recovered panic)
}

// Error implements the error interface for TaskError.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task for %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// IsTaskError checks if the error is or wraps a TaskError.
func IsTaskError(err error) bool {
	if err == nil {
		return false
	}
	var te *TaskError
	return errors.As(err, &te)
}

// WalkError represents a filesystem failure during tree traversal, such
// as an unreadable subdirectory. Traversal stops at the first WalkError
// rather than silently skipping the affected subtree.
type WalkError struct {
	Path string // Entry that could not be read
	Err  error  // Underlying filesystem error
}

// Error implements the error interface for WalkError.
func (e *WalkError) Error() string {
	return fmt.Sprintf("walk %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *WalkError) Unwrap() error {
	return e.Err
}
