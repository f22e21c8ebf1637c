package harness

import (
	"context"
	"errors"
	"fmt"
)

// The harness reports failures through a small closed set of error kinds.
// Every kind matches itself under errors.Is regardless of the message, so
// callers can classify without string comparison. Only CancellationError
// escapes a batch; everything else is rendered inline.

// ValidationError marks a malformed payload: missing field, bad JSON, a
// disabled tool, or an unusable working directory.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "invalid payload"
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	return ok
}

// SecurityError marks a path or executable outside the configured allowlist.
// Code distinguishes the boundary that rejected the request.
type SecurityError struct {
	Code   string
	Reason string
}

// Security error codes.
const (
	CodeDirectoryNotAllowed  = "directory_not_allowed"
	CodePathNotAllowed       = "path_not_allowed"
	CodeExecutableNotAllowed = "executable_not_allowed"
	CodePatchPathRejected    = "patch_path_rejected"
)

func (e SecurityError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "access denied"
}

func (e SecurityError) Is(target error) bool {
	_, ok := target.(SecurityError)
	return ok
}

// ResourceLimitError marks a size or byte cap exceeded before any side
// effect took place.
type ResourceLimitError struct {
	Reason string
}

func (e ResourceLimitError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "resource limit exceeded"
}

func (e ResourceLimitError) Is(target error) bool {
	_, ok := target.(ResourceLimitError)
	return ok
}

// NotFoundError marks a missing file or directory.
type NotFoundError struct {
	Path string
}

func (e NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("not found: %s", e.Path)
	}
	return "not found"
}

func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	return ok
}

// UpstreamError marks an external process or collaborator failure.
type UpstreamError struct {
	Reason string
	Cause  error
}

func (e UpstreamError) Error() string {
	if e.Cause != nil && e.Reason != "" {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	if e.Reason != "" {
		return e.Reason
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "upstream failure"
}

func (e UpstreamError) Unwrap() error { return e.Cause }

func (e UpstreamError) Is(target error) bool {
	_, ok := target.(UpstreamError)
	return ok
}

// TimeoutError marks a process that exceeded its timeout. The runner reports
// it in-band; handlers only surface it as an error when nothing useful ran.
type TimeoutError struct {
	Reason string
}

func (e TimeoutError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "timed out"
}

func (e TimeoutError) Is(target error) bool {
	_, ok := target.(TimeoutError)
	return ok
}

// CancellationError marks a batch interrupted by the caller. It is never
// downgraded to inline text.
type CancellationError struct {
	Cause error
}

func (e CancellationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cancelled: %v", e.Cause)
	}
	return "cancelled"
}

func (e CancellationError) Unwrap() error { return e.Cause }

func (e CancellationError) Is(target error) bool {
	if _, ok := target.(CancellationError); ok {
		return true
	}
	return false
}

// IsCancellation reports whether err represents caller cancellation, either
// as a CancellationError or a bare context error bubbling up from a handler.
func IsCancellation(err error) bool {
	if err == nil {
		return false
	}
	var ce CancellationError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// cancelled wraps a context error once the caller has given up.
func cancelled(err error) error {
	return CancellationError{Cause: err}
}
