package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "userboard-api/internal/domain/user"
	"userboard-api/internal/usecase/user"
	apperrors "userboard-api/pkg/errors"
)

// CreateUserRequest represents the HTTP request body for creating a user.
// Age is a pointer so a missing value is told apart from zero.
type CreateUserRequest struct {
	Firstname   string `json:"firstname" validate:"required,min=1,max=50"`
	Lastname    string `json:"lastname" validate:"required,min=1,max=50"`
	Age         *int   `json:"age" validate:"required,gte=0,lte=150"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
}

// DeleteUserRequest represents the HTTP request body for deleting a user
type DeleteUserRequest struct {
	ID *int64 `json:"id" validate:"required"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID          int64  `json:"id"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Age         int    `json:"age"`
	DateOfBirth string `json:"date_of_birth"`
}

// MessageResponse carries a human-readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                     `json:"error"`
	Message string                     `json:"message,omitempty"`
	Details []apperrors.FieldViolation `json:"details,omitempty"`
}

const internalErrorMessage = "An internal error occurred"

func toUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Firstname:   u.Firstname,
		Lastname:    u.Lastname,
		Age:         u.Age,
		DateOfBirth: u.DateOfBirth.Format(domain.DateLayout),
	}
}

// writeError maps err to its HTTP status and error body.
// Causes of 500 responses are logged, never returned to the client.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	var statuser apperrors.HTTPStatuser
	if errors.As(err, &statuser) {
		status = statuser.HTTPStatus()
	}

	switch status {
	case http.StatusUnprocessableEntity:
		resp := ErrorResponse{Error: "validation_error", Message: "Request validation failed"}
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			resp.Details = verr.Violations
		}
		c.JSON(status, resp)
	case http.StatusNotFound:
		c.JSON(status, ErrorResponse{Error: "not_found", Message: err.Error()})
	default:
		log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: internalErrorMessage})
	}
}
