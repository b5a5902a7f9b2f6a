package errors

import (
	"context"
	"errors"
)

// CheckContext returns an error if the context is canceled or timed out.
// This provides a standardized way to check and wrap context errors.
func CheckContext(ctx context.Context, operation string) error {
	if err := ctx.Err(); err != nil {
		return Wrap(err, Canceled, operation+" canceled")
	}
	return nil
}

// CodeOf returns the error code carried by err, or Unknown for foreign errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return Unknown
}

// IsNotFound reports whether err carries the ResourceNotFound code.
func IsNotFound(err error) bool {
	return CodeOf(err) == ResourceNotFound
}

// IsValidation reports whether err carries the ValidationFailed or InvalidInput code.
func IsValidation(err error) bool {
	code := CodeOf(err)
	return code == ValidationFailed || code == InvalidInput
}

// IsLockTimeout reports whether err carries the LockTimeout code.
func IsLockTimeout(err error) bool {
	return CodeOf(err) == LockTimeout
}

// IsIndexUnavailable reports whether err carries the IndexUnavailable code.
func IsIndexUnavailable(err error) bool {
	return CodeOf(err) == IndexUnavailable
}
