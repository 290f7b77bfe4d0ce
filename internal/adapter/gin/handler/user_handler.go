package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userboard-api/internal/adapter/db/session"
	"userboard-api/internal/adapter/gin/middleware"
	domain "userboard-api/internal/domain/user"
	"userboard-api/internal/usecase/user"
	apperrors "userboard-api/pkg/errors"
	"userboard-api/pkg/logger"
	"userboard-api/pkg/validation"
)

// UsecaseFactory builds a user usecase bound to the request's store session.
type UsecaseFactory func(s *session.Session) user.Usecase

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	newUsecase UsecaseFactory
	validate   *validation.Validator
	log        *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(newUsecase UsecaseFactory, validate *validation.Validator, log *zap.Logger) *UserHandler {
	return &UserHandler{
		newUsecase: newUsecase,
		validate:   validate,
		log:        log,
	}
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	uc, ok := h.usecase(c)
	if !ok {
		return
	}

	users, err := uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}

	c.JSON(http.StatusOK, resp)
}

// CreateUser handles POST /users/create
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !h.bind(c, &req) {
		return
	}

	// Already checked by the datetime rule
	dob, err := domain.ParseDate(req.DateOfBirth)
	if err != nil {
		h.handleError(c, apperrors.NewValidationError(apperrors.FieldViolation{
			Field:   "date_of_birth",
			Message: "date_of_birth must be a valid date (YYYY-MM-DD)",
		}))
		return
	}

	uc, ok := h.usecase(c)
	if !ok {
		return
	}

	created, err := uc.CreateUser(c.Request.Context(), user.CreateUserInput{
		Firstname:   req.Firstname,
		Lastname:    req.Lastname,
		Age:         *req.Age,
		DateOfBirth: dob,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(*created))
}

// DeleteUser handles DELETE /user
func (h *UserHandler) DeleteUser(c *gin.Context) {
	var req DeleteUserRequest
	if !h.bind(c, &req) {
		return
	}

	uc, ok := h.usecase(c)
	if !ok {
		return
	}

	if err := uc.DeleteUser(c.Request.Context(), *req.ID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// bind decodes the JSON body into req and validates it.
// On failure it writes the 422 response and returns false.
func (h *UserHandler) bind(c *gin.Context, req any) bool {
	body, err := c.GetRawData()
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Debug("failed to read request body", zap.Error(err))
		h.handleError(c, validation.FromDecodeError(err))
		return false
	}
	if err := h.validate.Bind(body, req); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Debug("request validation failed", zap.Error(err))
		h.handleError(c, err)
		return false
	}
	return true
}

// usecase builds the usecase for this request from its store session.
func (h *UserHandler) usecase(c *gin.Context) (user.Usecase, bool) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		h.handleError(c, apperrors.NewInternalError("store session missing from request", nil))
		return nil, false
	}
	return h.newUsecase(sess), true
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	writeError(c, logger.WithContext(c.Request.Context(), h.log), err)
}
