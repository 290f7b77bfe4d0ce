package user

import (
	"time"

	domain "userboard-api/internal/domain/user"
)

// CreateUserInput carries an already validated create request.
type CreateUserInput struct {
	Firstname   string
	Lastname    string
	Age         int
	DateOfBirth time.Time
}

// User represents a user DTO (Data Transfer Object) returned to the transport layer.
type User struct {
	ID          int64
	Firstname   string
	Lastname    string
	Age         int
	DateOfBirth time.Time
}

// toEntity maps validated input to a new, not yet persisted entity.
func (in CreateUserInput) toEntity() *domain.User {
	return &domain.User{
		Firstname:   in.Firstname,
		Lastname:    in.Lastname,
		Age:         in.Age,
		DateOfBirth: domain.CalendarDate(in.DateOfBirth),
	}
}

// fromEntity maps a persisted entity to its response DTO.
func fromEntity(u domain.User) User {
	return User{
		ID:          u.ID,
		Firstname:   u.Firstname,
		Lastname:    u.Lastname,
		Age:         u.Age,
		DateOfBirth: u.DateOfBirth,
	}
}
