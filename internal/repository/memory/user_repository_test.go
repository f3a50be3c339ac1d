package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"secureapp/internal/domain"
	"secureapp/internal/repository"
)

func newUser(id, email string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestInsertAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	require.NoError(t, repo.Insert(ctx, newUser("u1", "bob@example.com")))

	got, err := repo.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)

	// case-insensitive email, exact id
	got, err = repo.FindByEmail(ctx, "BOB@Example.COM")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)

	got, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", got.Email)

	_, err = repo.FindByID(ctx, "U1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInsertDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	require.NoError(t, repo.Insert(ctx, newUser("u1", "A@x.com")))
	err := repo.Insert(ctx, newUser("u2", "a@x.com"))
	require.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Insert(ctx, newUser(string(rune('a'+i)), "race@x.com"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, repository.ErrDuplicateEmail)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one concurrent insert may win")
}

func TestUpdateFieldsPartial(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	user := newUser("u1", "bob@example.com")
	user.FirstName = "Bob"
	user.LastName = "X"
	require.NoError(t, repo.Insert(ctx, user))

	before, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)

	last := "Y"
	updated, err := repo.UpdateFields(ctx, "u1", repository.UserUpdate{LastName: &last})
	require.NoError(t, err)
	require.Equal(t, "Bob", updated.FirstName, "untouched field must survive")
	require.Equal(t, "Y", updated.LastName)
	require.Equal(t, before.CreatedAt, updated.CreatedAt)
	require.False(t, updated.UpdatedAt.Before(before.UpdatedAt))
}

func TestUpdateFieldsResetTicket(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Insert(ctx, newUser("u1", "bob@example.com")))

	ticket := "deadbeef"
	expires := time.Now().UTC().Add(time.Hour)
	updated, err := repo.UpdateFields(ctx, "u1", repository.UserUpdate{
		ResetToken:          &ticket,
		ResetTokenExpiresAt: &expires,
	})
	require.NoError(t, err)
	require.True(t, updated.HasLiveResetTicket(time.Now()))
}

func TestUpdateFieldsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	first := "Alice"
	_, err := repo.UpdateFields(ctx, "missing", repository.UserUpdate{FirstName: &first})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReturnedUserIsACopy(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Insert(ctx, newUser("u1", "bob@example.com")))

	got, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	got.FirstName = "mutated"

	again, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, again.FirstName, "callers must not mutate stored state")
}
