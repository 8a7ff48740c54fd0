package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	err := NotFound("product", "prod-1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "prod-1")

	wrapped := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Status: 500, Err: errors.New("disk full")}
	assert.Contains(t, wrapped.Error(), "disk full")
}

func TestAppError_UnwrapsToSentinel(t *testing.T) {
	assert.ErrorIs(t, NotFound("cart", "u1"), ErrNotFound)
	assert.ErrorIs(t, AlreadyExists("review", "product_id,user_id", "p1/u1"), ErrAlreadyExists)
	assert.ErrorIs(t, InvalidInput("rating must be between 1 and 5"), ErrInvalidInput)
	assert.ErrorIs(t, Conflict("cart was modified concurrently"), ErrConflict)
	assert.ErrorIs(t, Unauthorized("authentication required"), ErrUnauthorized)
	assert.ErrorIs(t, Unavailable("identity provider unreachable", errors.New("dial tcp")), ErrUnavailable)
}

func TestHTTPStatus_AppError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("product", "x")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("retry")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("bad")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Unavailable("down", errors.New("x"))))
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("get cart: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))

	err = fmt.Errorf("insert review: %w", ErrAlreadyExists)
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("opaque")))
}
