package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sessionStore "etag/internal/adapters/storage/session"
	"etag/internal/domain/identity"
)

// AuthAPIForLogin defines the remote API surface needed by Login.
type AuthAPIForLogin interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	SessionID   string
	Email       string
	DisplayName string
	Role        string
	IsAdmin     bool
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	API      AuthAPIForLogin
	Sessions sessionStore.Store
	Now      func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoIdentity         = errors.New("could not determine an account email")
)

// ExecuteLogin exchanges credentials for a bearer token, resolves the
// identity from the token, and creates a server-side session.
// PRE: Valid email and password provided
// POST: On success a session row exists holding the token and identity
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	token, err := deps.API.Login(ctx, input.Email, input.Password)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "error", err)
		return LoginResult{}, ErrInvalidCredentials
	}

	id := identity.Resolve(identity.Identity{}, token)
	if id.Email == "" {
		slog.Warn("auth_event", "event", "login_no_identity", "email", input.Email)
		return LoginResult{}, ErrNoIdentity
	}

	sid, err := sessionStore.NewID()
	if err != nil {
		return LoginResult{}, err
	}
	sess := sessionStore.Session{
		ID:          sid,
		APIToken:    token,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Role:        id.Role,
		CreatedAt:   now(),
		ExpiresAt:   now().Add(sessionStore.TTL),
	}
	if err := deps.Sessions.Save(ctx, sess); err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "email", id.Email, "role", id.Role)

	return LoginResult{
		SessionID:   sid,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Role:        id.Role,
		IsAdmin:     id.IsAdmin(),
	}, nil
}
