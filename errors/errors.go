// Package errors defines the error type every fs5600 operation returns:
// a thin wrapper around the POSIX errno code the caller is expected to act
// on, with an optional human-readable message attached.
package errors

import (
	"fmt"
	"syscall"
)

// DriverError is the error type returned by every operation in this module.
// It always carries a concrete syscall.Errno so callers can branch on the
// POSIX error class without string matching.
type DriverError struct {
	errno   syscall.Errno
	message string
}

// New creates a DriverError from a raw errno with a default message derived
// from the errno's own description.
func New(errno syscall.Errno) *DriverError {
	return &DriverError{errno: errno, message: errno.Error()}
}

// Newf creates a DriverError from a raw errno with a custom formatted message.
func Newf(errno syscall.Errno, format string, args ...any) *DriverError {
	return &DriverError{errno: errno, message: fmt.Sprintf(format, args...)}
}

// Wrap attributes an underlying error to a specific errno class, e.g.
// wrapping a raw I/O failure as EIO.
func Wrap(errno syscall.Errno, err error) *DriverError {
	if err == nil {
		return New(errno)
	}
	return &DriverError{errno: errno, message: fmt.Sprintf("%s: %s", errno.Error(), err.Error())}
}

func (e *DriverError) Error() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Errno returns the POSIX error code this DriverError represents.
func (e *DriverError) Errno() syscall.Errno {
	if e == nil {
		return 0
	}
	return e.errno
}

// Is lets errors.Is(err, syscall.ENOENT) work against a *DriverError.
func (e *DriverError) Is(target error) bool {
	if target == nil {
		return e == nil
	}
	if errno, ok := target.(syscall.Errno); ok {
		return e != nil && e.errno == errno
	}
	other, ok := target.(*DriverError)
	return ok && e != nil && other != nil && e.errno == other.errno
}

// Errno extracts the syscall.Errno carried by err, if any. Non-DriverError
// errors map to EIO, matching the spec's rule that unexpected failures
// surface to the caller as an I/O error.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	if de, ok := err.(*DriverError); ok {
		return de.Errno()
	}
	return syscall.EIO
}
