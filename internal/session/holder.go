// Package session implements the client-side session holder: a process-wide
// cache of the current session token and derived user, backed by a single
// durable slot on disk. The slot's presence and validity is the sole source
// of truth for "is a user logged in" at startup.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"secureapp/internal/domain"
	"secureapp/internal/service"
)

// SlotName is the fixed name of the token slot file.
const SlotName = "auth_token"

// Holder caches the current session. Safe for concurrent use.
type Holder struct {
	mu   sync.Mutex
	path string
	auth service.AuthService

	token string
	user  *domain.PublicUser
}

// NewHolder creates a Holder whose slot lives in dir.
func NewHolder(dir string, auth service.AuthService) *Holder {
	return &Holder{path: filepath.Join(dir, SlotName), auth: auth}
}

// Load rehydrates the session from the slot. A missing slot means logged out.
// A token that no longer verifies, or whose user has vanished, is stale: the
// slot is cleared and the holder stays logged out.
func (h *Holder) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	raw, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read session slot: %w", err)
	}

	tok := strings.TrimSpace(string(raw))
	if tok == "" {
		return h.discardLocked()
	}

	userID, err := h.auth.VerifyToken(tok)
	if err != nil {
		return h.discardLocked()
	}
	user, err := h.auth.GetUserByID(ctx, userID)
	if err != nil {
		return h.discardLocked()
	}

	h.token = tok
	h.user = user
	return nil
}

// Store persists the token into the slot and caches the derived user.
func (h *Holder) Store(token string, user domain.PublicUser) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(h.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write session slot: %w", err)
	}
	h.token = token
	h.user = &user
	return nil
}

// Clear discards the cached session and removes the slot.
func (h *Holder) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.discardLocked()
}

// Current returns the cached token and user. ok is false when logged out.
func (h *Holder) Current() (token string, user *domain.PublicUser, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.token == "" || h.user == nil {
		return "", nil, false
	}
	u := *h.user
	return h.token, &u, true
}

func (h *Holder) discardLocked() error {
	h.token = ""
	h.user = nil
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session slot: %w", err)
	}
	return nil
}
