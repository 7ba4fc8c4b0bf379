// Package service provides business logic for the Marketa backend.
package service

import (
	"errors"
)

// ErrForbidden is returned when the caller does not own the resource it is
// operating on.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports bad input detected before any side effect.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(msg string) error {
	return &ValidationError{Message: msg}
}

// Authorize is the ownership guard: it allows the operation only when the
// caller is the resource's owning user. Pure check, no side effects.
// Callers surface the denial as 403, distinct from 404, for every resource.
func Authorize(callerID, resourceOwnerID string) error {
	if callerID == "" || callerID != resourceOwnerID {
		return ErrForbidden
	}
	return nil
}
