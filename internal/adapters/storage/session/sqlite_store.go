package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"etag/internal/adapters/storage"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements the session Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new session store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves a live session by ID.
// POST: Returns ErrNotFound for missing or expired sessions; expired rows
// are removed on read
func (s *SQLiteStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, api_token, email, display_name, role, created_at, expires_at
		 FROM session WHERE id = ?`, id)

	var sess Session
	var createdAt, expiresAt string
	err := row.Scan(&sess.ID, &sess.APIToken, &sess.Email, &sess.DisplayName, &sess.Role, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	sess.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	sess.ExpiresAt, _ = time.Parse(dateLayout, expiresAt)

	if sess.IsExpired(time.Now()) {
		_ = s.Delete(ctx, id)
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// Save inserts or replaces a session.
func (s *SQLiteStore) Save(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO session (id, api_token, email, display_name, role, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.APIToken, sess.Email, sess.DisplayName, sess.Role,
		sess.CreatedAt.Format(dateLayout), sess.ExpiresAt.Format(dateLayout))
	return err
}

// Delete removes a session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE id = ?`, id)
	return err
}

// DeleteExpired removes all sessions past their expiry.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE expires_at <= ?`, now.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
