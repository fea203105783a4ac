// Package storage provides the shared foundations of the lopen persistent
// store: the error taxonomy every component classifies failures with, and
// the atomic write primitive every structured write goes through.
//
// # Error taxonomy
//
// Failures fall into three categories:
//
//   - Not-found: an absent result, signalled by ErrNotFound. Missing state,
//     plans, and cache entries are ordinary outcomes, never failures.
//   - Logical: a *StorageError whose cause is not an I/O problem (bad data,
//     unparseable records). Safe to log and continue.
//   - Critical: a *StorageError wrapping an I/O or permission failure, or a
//     *WriteFailureError. The storage medium itself can no longer be
//     trusted, so these always surface to the caller.
//
// Critical() is the single switch every caller uses to decide between
// retry/ignore and abort.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Re-export standard library helpers so store packages can import only
// this package for error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
)

// ErrNotFound signals an absent record: no session state, no plan, no
// cache entry. Callers check for it with errors.Is.
var ErrNotFound = New("not found")

// StorageError is the failure type for every store operation. Critical()
// reports whether the underlying cause is an I/O or permission failure.
type StorageError struct {
	Message string
	Path    string
	Inner   error
}

// NewError creates a StorageError wrapping the given cause.
func NewError(message string, inner error) *StorageError {
	return &StorageError{Message: message, Inner: inner}
}

// WithPath attaches the affected path to the error.
func (e *StorageError) WithPath(path string) *StorageError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *StorageError) Error() string {
	prefix := "storage error"
	if e.Path != "" {
		prefix = fmt.Sprintf("storage error [path=%s]", e.Path)
	}
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Inner
}

// Critical reports whether the error is rooted in an I/O or permission
// failure, meaning the storage medium can no longer be trusted.
func (e *StorageError) Critical() bool {
	return isIOError(e.Inner)
}

// WriteFailureError is a critical StorageError raised when a write fails
// in a way that indicates a full or unavailable device. It carries the OS
// error code and a human-readable classification for CLI guidance.
type WriteFailureError struct {
	StorageError
	Errno          syscall.Errno
	Classification string
}

// Critical always reports true: a write failure with a device-level cause
// is never safe to ignore.
func (e *WriteFailureError) Critical() bool {
	return true
}

// Error returns the formatted error message, including the classification.
func (e *WriteFailureError) Error() string {
	return fmt.Sprintf("%s (%s)", e.StorageError.Error(), e.Classification)
}

// WrapWrite wraps a write-path failure in the appropriate error type: a
// WriteFailureError when the cause clearly indicates a full or unavailable
// device, a plain StorageError otherwise. Context cancellation is passed
// through untouched.
func WrapWrite(message, path string, err error) error {
	if err == nil {
		return nil
	}
	if IsContextError(err) {
		return err
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if class, ok := classifyErrno(errno); ok {
			return &WriteFailureError{
				StorageError:   StorageError{Message: message, Path: path, Inner: err},
				Errno:          errno,
				Classification: class,
			}
		}
	}
	return NewError(message, err).WithPath(path)
}

// classifyErrno maps device-level error codes to human descriptions.
// Codes without a device-level meaning report not-ok so the caller falls
// back to a plain StorageError.
func classifyErrno(errno syscall.Errno) (string, bool) {
	switch errno {
	case syscall.ENOSPC:
		return "no space left on device", true
	case syscall.EDQUOT:
		return "disk quota exceeded", true
	case syscall.EROFS:
		return "read-only filesystem", true
	case syscall.EIO:
		return "I/O failure", true
	case syscall.EACCES, syscall.EPERM:
		return "permission denied", true
	default:
		return "", false
	}
}

// IsCritical reports whether err is a critical storage failure: one whose
// root cause is an I/O or permission error. Not-found and context errors
// are never critical.
func IsCritical(err error) bool {
	if err == nil {
		return false
	}
	var wf *WriteFailureError
	if errors.As(err, &wf) {
		return true
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Critical()
	}
	return false
}

// IsContextError reports whether err stems from context cancellation or
// deadline expiry. These surface as-is, never wrapped as storage errors.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// isIOError reports whether err is rooted in an I/O or permission failure
// from the operating system, as opposed to a logical problem like
// unparseable data.
func isIOError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return true
	}
	var sysErr *os.SyscallError
	return errors.As(err, &sysErr)
}
