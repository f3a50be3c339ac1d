package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"secureapp/internal/auth"
	"secureapp/internal/domain"
	"secureapp/internal/password"
	"secureapp/internal/repository"
	"secureapp/internal/token"
)

// DefaultResetTicketValidity is how long a password-reset ticket stays live.
const DefaultResetTicketValidity = time.Hour

// Session is the success payload of SignUp and SignIn.
type Session struct {
	User  domain.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// ProfileUpdate carries the profile fields a user may change. Nil means
// "leave unchanged".
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}

// AuthService is the sole entry point the outside world uses for credential
// and session operations. Every error it returns is an *auth.Error.
type AuthService interface {
	SignUp(ctx context.Context, email, pass, firstName, lastName string) (*Session, error)
	SignIn(ctx context.Context, email, pass string) (*Session, error)
	SignOut(ctx context.Context) error
	// ResetPassword stores a fresh reset ticket on the user and returns the
	// ticket value. Delivery to the user is the caller's concern.
	ResetPassword(ctx context.Context, email string) (string, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error
	VerifyToken(tokenValue string) (string, error)
	GetUserByID(ctx context.Context, id string) (*domain.PublicUser, error)
}

type authService struct {
	users         repository.UserRepository
	hasher        password.Hasher
	tokens        *token.Service
	resetValidity time.Duration
}

func NewAuthService(users repository.UserRepository, hasher password.Hasher, tokens *token.Service, resetValidity time.Duration) AuthService {
	if resetValidity <= 0 {
		resetValidity = DefaultResetTicketValidity
	}
	return &authService{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		resetValidity: resetValidity,
	}
}

func (s *authService) SignUp(ctx context.Context, email, pass, firstName, lastName string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, auth.New(auth.KindValidation, "email is required")
	}
	if strings.TrimSpace(pass) == "" {
		return nil, auth.New(auth.KindValidation, "password is required")
	}

	// Advisory pre-check only; the insert below is the correctness mechanism.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, auth.ErrDuplicateUser
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrServiceUnavailable
	}

	hashed, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, auth.ErrServiceUnavailable
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hashed,
		FirstName:     strings.TrimSpace(firstName),
		LastName:      strings.TrimSpace(lastName),
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// covers the race window between the pre-check and the insert
			return nil, auth.ErrDuplicateUser
		}
		return nil, auth.ErrServiceUnavailable
	}

	return s.newSession(user)
}

func (s *authService) SignIn(ctx context.Context, email, pass string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || pass == "" {
		return nil, auth.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, auth.ErrServiceUnavailable
	}

	if !s.hasher.Verify(pass, user.PasswordHash) {
		return nil, auth.ErrInvalidCredentials
	}

	return s.newSession(user)
}

// SignOut has no durable side effect: tokens are stateless and the session
// holder discards its local copy. It exists as a contract point and never
// fails.
func (s *authService) SignOut(ctx context.Context) error { return nil }

func (s *authService) ResetPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", auth.New(auth.KindValidation, "email is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", auth.ErrNotFound
		}
		return "", auth.ErrServiceUnavailable
	}

	ticket, err := randomHex(16)
	if err != nil {
		return "", auth.ErrServiceUnavailable
	}
	expires := time.Now().UTC().Add(s.resetValidity)

	if _, err := s.users.UpdateFields(ctx, user.ID, repository.UserUpdate{
		ResetToken:          &ticket,
		ResetTokenExpiresAt: &expires,
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", auth.ErrNotFound
		}
		return "", auth.ErrServiceUnavailable
	}

	return ticket, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error {
	if userID == "" {
		return auth.New(auth.KindValidation, "user id is required")
	}
	fields := repository.UserUpdate{
		FirstName: update.FirstName,
		LastName:  update.LastName,
	}
	if fields.Empty() {
		return nil
	}

	if _, err := s.users.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.ErrNotFound
		}
		return auth.ErrServiceUnavailable
	}
	return nil
}

// VerifyToken resolves a token back into the bound user id. Pure delegation
// to the token service.
func (s *authService) VerifyToken(tokenValue string) (string, error) {
	userID, err := s.tokens.Verify(tokenValue)
	if err != nil {
		return "", auth.ErrTokenInvalid
	}
	return userID, nil
}

func (s *authService) GetUserByID(ctx context.Context, id string) (*domain.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrNotFound
		}
		return nil, auth.ErrServiceUnavailable
	}
	public := user.Public()
	return &public, nil
}

func (s *authService) newSession(user *domain.User) (*Session, error) {
	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, auth.ErrServiceUnavailable
	}
	return &Session{User: user.Public(), Token: tok}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
