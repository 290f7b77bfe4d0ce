package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userboard-api/internal/domain/user"
)

// UserRepoPG implements the user Repository interface on top of GORM.
// An instance is bound to the *gorm.DB of a single request session.
type UserRepoPG struct {
	db  *gorm.DB    // GORM handle of the current session
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema is the row representation of the users table.
type UserSchema struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;index"`
	Firstname   string    `gorm:"size:50;not null"`
	Lastname    string    `gorm:"size:50;not null"`
	Age         int       `gorm:"not null"`
	DateOfBirth time.Time `gorm:"type:date;not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// toSchema maps a domain user to its row representation.
func toSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:          u.ID,
		Firstname:   u.Firstname,
		Lastname:    u.Lastname,
		Age:         u.Age,
		DateOfBirth: user.CalendarDate(u.DateOfBirth),
	}
}

// toDomain maps a row to a domain user.
func toDomain(m UserSchema) user.User {
	return user.User{
		ID:          m.ID,
		Firstname:   m.Firstname,
		Lastname:    m.Lastname,
		Age:         m.Age,
		DateOfBirth: user.CalendarDate(m.DateOfBirth),
	}
}

// List returns every user in the store's natural order.
// The result is empty, never nil, when no users exist.
func (r *UserRepoPG) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = toDomain(model)
	}

	return users, nil
}

// Create inserts a new user, commits, and returns it with the store-assigned ID.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := toSchema(u)
	model.ID = 0 // always assigned by the store

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		r.log.Error("failed to create user in db", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	created := toDomain(model)
	return &created, nil
}

// GetByID retrieves a user by ID. It returns nil, nil when no such user exists.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getByID(r.db.WithContext(ctx), id)
}

func (r *UserRepoPG) getByID(db *gorm.DB, id int64) (*user.User, error) {
	var model UserSchema
	if err := db.Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := toDomain(model)
	return &u, nil
}

// Delete removes the user with the given ID.
// It reports false, without issuing a delete, when the user does not exist.
// Lookup and delete run in one transaction and the affected row count is
// checked, so a competing delete that removed the row first also yields false.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) (bool, error) {
	deleted := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.getByID(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}

		res := tx.Where("id = ?", id).Delete(&UserSchema{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		r.log.Error("failed to delete user in db", zap.Error(err), zap.Int64("id", id))
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	if deleted {
		r.log.Info("user deleted in db", zap.Int64("id", id))
	}
	return deleted, nil
}
