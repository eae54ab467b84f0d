package orchestrators

import (
	"context"
	"log/slog"

	sessionStore "etag/internal/adapters/storage/session"
)

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Sessions sessionStore.Store
}

// ExecuteLogout deletes the server-side session. Used both for explicit
// logout and for the forced logout after the remote API rejects a token.
// POST: The session row no longer exists
func ExecuteLogout(ctx context.Context, sessionID string, deps LogoutDeps) error {
	if sessionID == "" {
		return nil
	}
	if err := deps.Sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "logout")
	return nil
}
