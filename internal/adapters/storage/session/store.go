// Package session persists authenticated browser sessions. Each row holds
// the remote API bearer token plus the resolved identity fields, so the
// server is the only reader and writer of auth state.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// TTL is how long a session stays valid after creation.
const TTL = 24 * time.Hour

// Session is one authenticated browser session.
type Session struct {
	ID          string
	APIToken    string // bearer token issued by the remote API
	Email       string
	DisplayName string
	Role        string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// IsExpired reports whether the session has passed its expiry.
func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists Session state.
type Store interface {
	// Get retrieves a live session by ID.
	// POST: Returns ErrNotFound for missing or expired sessions
	Get(ctx context.Context, id string) (Session, error)

	// Save inserts or replaces a session.
	Save(ctx context.Context, s Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all sessions past their expiry.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewID generates a cryptographically random session identifier.
func NewID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
