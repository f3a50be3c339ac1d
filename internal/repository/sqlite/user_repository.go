package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"secureapp/internal/domain"
	"secureapp/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email_verified INTEGER NOT NULL DEFAULT 0,
	reset_token TEXT NOT NULL DEFAULT '',
	reset_token_expires_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// UserRepository is the durable relational user store. Email uniqueness is
// enforced by the UNIQUE column; emails are stored lowercased.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, first_name, last_name, email_verified,
	reset_token, reset_token_expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		normalize(user.Email),
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.EmailVerified,
		user.ResetToken,
		user.ResetTokenExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE email = ?`, normalize(email))
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE id = ?`, id)
	return scanUser(row)
}

// UpdateFields builds a SET clause from the non-nil fields only; email, id,
// and created_at are never part of it.
func (r *UserRepository) UpdateFields(ctx context.Context, id string, update repository.UserUpdate) (*domain.User, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if update.FirstName != nil {
		set = append(set, "first_name = ?")
		args = append(args, *update.FirstName)
	}
	if update.LastName != nil {
		set = append(set, "last_name = ?")
		args = append(args, *update.LastName)
	}
	if update.EmailVerified != nil {
		set = append(set, "email_verified = ?")
		args = append(args, *update.EmailVerified)
	}
	if update.ResetToken != nil {
		set = append(set, "reset_token = ?")
		args = append(args, *update.ResetToken)
	}
	if update.ResetTokenExpiresAt != nil {
		set = append(set, "reset_token_expires_at = ?")
		args = append(args, *update.ResetTokenExpiresAt)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(set, ", ")),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrNotFound
	}

	return r.FindByID(ctx, id)
}

const selectUser = `
SELECT id, email, password_hash, first_name, last_name, email_verified,
	reset_token, reset_token_expires_at, created_at, updated_at
FROM users
`

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	var expires sql.NullTime
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.EmailVerified,
		&user.ResetToken,
		&expires,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if expires.Valid {
		t := expires.Time
		user.ResetTokenExpiresAt = &t
	}
	return &user, nil
}
