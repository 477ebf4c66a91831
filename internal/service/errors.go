package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the services. Handlers translate these to HTTP
// statuses with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrPermissionDenied = errors.New("permission denied")
	ErrCartEmpty        = errors.New("shopping cart is empty")
	ErrInvalidToken     = errors.New("invalid token")
)

// ValidationError is a field-keyed input error. The field name matches the
// JSON field in the request body so clients can attach the message to it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
