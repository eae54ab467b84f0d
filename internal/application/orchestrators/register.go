package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// AuthAPIForRegister defines the remote API surface needed by Register.
type AuthAPIForRegister interface {
	Register(ctx context.Context, name, email, password string) (string, error)
}

// RegisterInput carries input for the register orchestrator.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterDeps holds dependencies for Register.
type RegisterDeps struct {
	API AuthAPIForRegister
}

var ErrIncompleteRegistration = errors.New("name, email and password are all required")

// ExecuteRegister proxies account creation to the remote API.
// POST: Returns the API's confirmation message on success
func ExecuteRegister(ctx context.Context, input RegisterInput, deps RegisterDeps) (string, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return "", ErrIncompleteRegistration
	}

	msg, err := deps.API.Register(ctx, name, email, input.Password)
	if err != nil {
		slog.Info("auth_event", "event", "register_failed", "email", email, "error", err)
		return "", err
	}

	slog.Info("auth_event", "event", "register_success", "email", email)
	return msg, nil
}
