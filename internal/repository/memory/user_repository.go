// Package memory provides a volatile in-process user store. It holds the same
// contract as the durable stores, including constraint-level email
// uniqueness, so swapping stores does not change observable behavior.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"secureapp/internal/domain"
	"secureapp/internal/repository"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string // normalized email -> id
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Init(ctx context.Context) error { return nil }

// Insert stores the user. Uniqueness is checked and the record written under
// one write lock, so concurrent inserts with the same normalized email cannot
// both succeed.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	key := normalize(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[key]; exists {
		return repository.ErrDuplicateEmail
	}
	stored := cloneUser(user)
	stored.Email = key
	r.byID[stored.ID] = stored
	r.byEmail[key] = stored.ID
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalize(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) UpdateFields(ctx context.Context, id string, update repository.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.EmailVerified != nil {
		user.EmailVerified = *update.EmailVerified
	}
	if update.ResetToken != nil {
		user.ResetToken = *update.ResetToken
	}
	if update.ResetTokenExpiresAt != nil {
		t := *update.ResetTokenExpiresAt
		user.ResetTokenExpiresAt = &t
	}
	user.UpdatedAt = time.Now().UTC()

	return cloneUser(user), nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(user *domain.User) *domain.User {
	c := *user
	if user.ResetTokenExpiresAt != nil {
		t := *user.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &t
	}
	return &c
}
