package user

import (
	"context"

	"go.uber.org/zap"

	domain "userboard-api/internal/domain/user"
	apperrors "userboard-api/pkg/errors"
	"userboard-api/pkg/logger"
)

// Repository defines the interface for user data access operations.
// Implementations are bound to one store session.
type Repository interface {
	List(ctx context.Context) ([]domain.User, error)                  // List every user
	Create(ctx context.Context, u *domain.User) (*domain.User, error) // Insert a user and return it with its ID
	GetByID(ctx context.Context, id int64) (*domain.User, error)      // Retrieve user by ID, nil when absent
	Delete(ctx context.Context, id int64) (bool, error)               // Delete user by ID, false when absent
}

// ErrUserNotFound is returned when a delete targets an unknown user.
var ErrUserNotFound = apperrors.NewNotFoundError("user", "User not found")

// UserUsecase implements the business logic for user management operations.
// It separates the transport layer from the data layer.
type UserUsecase struct {
	repo Repository  // Repository for data access
	log  *zap.Logger // Logger for structured logging
}

var _ Usecase = (*UserUsecase)(nil)

// New creates a new UserUsecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *UserUsecase {
	return &UserUsecase{repo: r, log: log}
}

// ListUsers returns all users as DTOs. An empty store yields an empty slice.
func (uc *UserUsecase) ListUsers(ctx context.Context) ([]User, error) {
	log := logger.WithContext(ctx, uc.log)

	entities, err := uc.repo.List(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(entities))
	for i, e := range entities {
		users[i] = fromEntity(e)
	}

	log.Debug("listed users", zap.Int("count", len(users)))
	return users, nil
}

// CreateUser persists a new user from validated input.
func (uc *UserUsecase) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("firstname", in.Firstname), zap.String("lastname", in.Lastname))

	created, err := uc.repo.Create(ctx, in.toEntity())
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, err
	}

	out := fromEntity(*created)
	return &out, nil
}

// DeleteUser deletes a user by ID. It returns ErrUserNotFound when no such user exists.
func (uc *UserUsecase) DeleteUser(ctx context.Context, id int64) error {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.Int64("id", id))

	deleted, err := uc.repo.Delete(ctx, id)
	if err != nil {
		log.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return err
	}
	if !deleted {
		log.Warn("user not found", zap.Int64("id", id))
		return ErrUserNotFound
	}

	return nil
}
