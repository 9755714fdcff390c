package blobbind

import (
	"context"
	"errors"
	"fmt"
)

// Binding errors.  Test for these with errors.Is.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrUnsupportedShape      = errors.New("unsupported binding shape")
	ErrUnsupportedElement    = errors.New("unsupported collection element type")
	ErrAmbiguousStreamAccess = errors.New("cannot bind a stream with readwrite access")
	ErrCancelled             = errors.New("binding cancelled")

	// ErrAccessMode is returned by a bound handle used against its access mode
	ErrAccessMode = errors.New("operation not permitted by access mode")

	// Storage errors, produced by drivers and propagated unchanged
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotFound           = errors.New("not found")
)

// InvalidPathError describes a malformed path, or one that is structurally wrong
// for the requested shape
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath
}

// NotFoundError is returned by drivers when a container or item does not exist
type NotFoundError struct {
	Container string
	Item      string
}

func (e *NotFoundError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("container %q not found", e.Container)
	}
	return fmt.Sprintf("item %q not found in container %q", e.Item, e.Container)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CancelledError wraps the context error that stopped a binding
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCancelled, e.Cause)
}

func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// Cancelled returns a *CancelledError if the context is done, otherwise nil
func Cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &CancelledError{Cause: err}
	}
	return nil
}

// NewInvalidPathError creates a new InvalidPathError
func NewInvalidPathError(path, reason string) error {
	return &InvalidPathError{Path: path, Reason: reason}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(container, item string) error {
	return &NotFoundError{Container: container, Item: item}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCancelled checks if an error is a cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
