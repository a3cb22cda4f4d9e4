package apperr_test

import (
	"errors"
	"net/http"
	"testing"

	"civicledger/backend/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")

	err := apperr.Wrap(apperr.ErrPersistence, cause)

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.True(t, apperr.Retryable(err))
}

func TestWrap_NilStaysNil(t *testing.T) {
	assert.NoError(t, apperr.Wrap(apperr.ErrNotFound, nil))
}

func TestWrap_DoesNotDoubleWrap(t *testing.T) {
	err := apperr.Newf(apperr.ErrNotFound, "grievance %d", 7)

	assert.Same(t, err, apperr.Wrap(apperr.ErrNotFound, err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"NotFound", apperr.Newf(apperr.ErrNotFound, "x"), http.StatusNotFound},
		{"InvalidTransition", apperr.ErrInvalidTransition, http.StatusConflict},
		{"Unauthorized", apperr.ErrUnauthorized, http.StatusForbidden},
		{"External", apperr.ErrExternalService, http.StatusBadGateway},
		{"Integrity", apperr.ErrDataIntegrity, http.StatusInternalServerError},
		{"Persistence", apperr.ErrPersistence, http.StatusServiceUnavailable},
		{"Input", apperr.ErrInvalidInput, http.StatusBadRequest},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.HTTPStatus(tt.err))
		})
	}
}
