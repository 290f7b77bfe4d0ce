package user

import "context"

// Usecase defines the interface for user business logic operations.
type Usecase interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
}
