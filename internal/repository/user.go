package repository

import (
	"context"
	"errors"
	"time"

	"secureapp/internal/domain"
)

// Sentinel errors returned by every UserRepository implementation.
var (
	// ErrDuplicateEmail is returned by Insert when another user already holds
	// the normalized email. The guarantee comes from the store itself (unique
	// constraint or equivalent), not from a check-then-insert.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
)

// UserUpdate is a partial update: nil fields are left untouched. Email, id,
// and creation time are never updatable.
type UserUpdate struct {
	FirstName           *string
	LastName            *string
	EmailVerified       *bool
	ResetToken          *string
	ResetTokenExpiresAt *time.Time
}

// Empty reports whether the update would change no field.
func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.EmailVerified == nil &&
		u.ResetToken == nil && u.ResetTokenExpiresAt == nil
}

// UserRepository defines persistence operations for User records.
// Email lookups are case-insensitive; id lookups are exact. Insert must be
// atomic with respect to email uniqueness: two concurrent inserts with the
// same normalized email must not both succeed.
type UserRepository interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateFields applies the non-nil fields of update and refreshes
	// UpdatedAt, returning the record as stored afterwards.
	UpdateFields(ctx context.Context, id string, update UserUpdate) (*domain.User, error)
}
