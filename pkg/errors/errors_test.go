package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError()
	assert.Equal(t, "validation failed", err.Error())

	err.Add("firstname", "firstname is required")
	err.Add("age", "age must be at least 0")

	assert.Equal(t, "validation failed: firstname is required, age must be at least 0", err.Error())
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus())
	require.Len(t, err.Violations, 2)
	assert.Equal(t, "age", err.Violations[1].Field)
}

func TestNotFoundError(t *testing.T) {
	assert.Equal(t, "User not found", NewNotFoundError("user", "User not found").Error())
	assert.Equal(t, "user not found", NewNotFoundError("user", "").Error())
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("user", "").HTTPStatus())
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewInternalError("failed to list users", cause)

	assert.Equal(t, "failed to list users: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestHTTPStatuser_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("delete user: %w", NewNotFoundError("user", "User not found"))

	var statuser HTTPStatuser
	require.True(t, stderrors.As(wrapped, &statuser))
	assert.Equal(t, http.StatusNotFound, statuser.HTTPStatus())
}
