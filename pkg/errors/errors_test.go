package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesCode(t *testing.T) {
	err := ErrNotFound.WithDetail("id", "c-1").WithCause(fmt.Errorf("no rows"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", err)))
	assert.Empty(t, ErrNotFound.Details, "WithDetail must not mutate the sentinel")
}

func TestWrapKeepsExistingError(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrInternal))

	validation := ErrValidation.WithDetail("message", "name is required")
	assert.Same(t, validation, Wrap(validation, ErrInternal))

	wrapped := Wrap(fmt.Errorf("dial tcp"), ErrInternal)
	assert.Equal(t, ErrInternal.Code, wrapped.Code)
	assert.EqualError(t, wrapped.Cause, "dial tcp")
}

func TestRetryability(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		retryable bool
	}{
		{name: "internal", err: ErrInternal, retryable: true},
		{name: "validation", err: ErrValidation, retryable: false},
		{name: "not found", err: ErrNotFound, retryable: false},
		{name: "forced fatal", err: ErrServiceUnavailable.AsFatal(), retryable: false},
		{name: "forced retryable", err: ErrValidation.AsRetryable(), retryable: true},
		{name: "fatal cause", err: ErrInternal.WithCause(ErrValidation), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
			assert.Equal(t, !tt.retryable, tt.err.IsFatal())
		})
	}
}

func TestToErrorResponse(t *testing.T) {
	err := ErrConflict.WithDetail("message", "customer with phone '111' already exists")

	resp := ToErrorResponse(err)
	assert.Equal(t, "CONFLICT", resp.ErrorCode)
	assert.Equal(t, "customer with phone '111' already exists", resp.Error)
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(err))

	plain := ToErrorResponse(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, plain.ErrorCode)
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(fmt.Errorf("boom")))
}

func TestGuardRecoversPanic(t *testing.T) {
	err := Guard(func() error {
		panic("tag store exploded")
	})
	require.Error(t, err)

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, true, appErr.Details["panic"])
	assert.True(t, appErr.IsFatal())

	assert.NoError(t, Guard(func() error { return nil }))
	assert.Nil(t, RecoverPanic(nil))
}
