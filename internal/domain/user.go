package domain

import "time"

// User is the identity record persisted by the user directory.
// Mutable fields are only ever changed through the auth service.
type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	FirstName           string
	LastName            string
	EmailVerified       bool
	ResetToken          string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PublicUser is the projection of a User that is safe to return to callers.
// It never carries the password hash or a pending reset ticket.
type PublicUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public returns the caller-facing projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// HasLiveResetTicket reports whether a reset ticket is present and unexpired.
func (u *User) HasLiveResetTicket(now time.Time) bool {
	return u.ResetToken != "" && u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(now)
}
