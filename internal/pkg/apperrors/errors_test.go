package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := map[ErrorType]int{
		ErrInvalidRequest:  http.StatusBadRequest,
		ErrDuplicate:       http.StatusBadRequest,
		ErrNotFound:        http.StatusNotFound,
		ErrPayloadTooLarge: http.StatusRequestEntityTooLarge,
		ErrRateLimited:     http.StatusTooManyRequests,
		ErrInternal:        http.StatusInternalServerError,
	}
	for typ, status := range cases {
		assert.Equal(t, status, New(typ, "x", nil).HTTPStatus, typ)
	}
}

func TestWrapKeepsAppError(t *testing.T) {
	orig := NewNotFound("client not found")
	wrapped := fmt.Errorf("lookup: %w", orig)

	assert.Same(t, orig, Wrap(wrapped))
	assert.True(t, IsType(wrapped, ErrNotFound))
}

func TestWrapUnknownIsInternal(t *testing.T) {
	cause := errors.New("disk on fire")
	appErr := Wrap(cause)

	assert.Equal(t, ErrInternal, appErr.Type)
	assert.Equal(t, []string{"disk on fire"}, appErr.Errors())
	assert.ErrorIs(t, appErr, cause)
}

func TestErrorsPrefersDetails(t *testing.T) {
	appErr := NewInternal("failed", errors.New("cause"))
	appErr.Details = []string{"explicit"}
	assert.Equal(t, []string{"explicit"}, appErr.Errors())
	assert.Nil(t, NewNotFound("missing").Errors())
}
