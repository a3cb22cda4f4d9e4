// Package apperr defines the error kinds shared by the grievance pipeline.
// Callers wrap a kind with context and match it with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrExternalService   = errors.New("external service failure")
	ErrDataIntegrity     = errors.New("data integrity violation")
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidInput      = errors.New("invalid input")
)

// Wrap attaches a kind to err. A nil err stays nil.
func Wrap(kind error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Kind returns the kind sentinel carried by err, or nil.
func Kind(err error) error {
	for _, k := range []error{
		ErrNotFound,
		ErrInvalidTransition,
		ErrUnauthorized,
		ErrExternalService,
		ErrDataIntegrity,
		ErrPersistence,
		ErrInvalidInput,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Retryable reports whether the caller may safely repeat the operation.
func Retryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// HTTPStatus maps an error kind to the status code returned by the API.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidTransition:
		return http.StatusConflict
	case ErrUnauthorized:
		return http.StatusForbidden
	case ErrExternalService:
		return http.StatusBadGateway
	case ErrPersistence:
		return http.StatusServiceUnavailable
	case ErrInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
