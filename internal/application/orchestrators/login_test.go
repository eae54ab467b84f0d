package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	sessionStore "etag/internal/adapters/storage/session"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// signToken builds a real HS256 token carrying the given claims.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// memSessions is an in-memory sessionStore.Store for testing.
type memSessions struct {
	saved   map[string]sessionStore.Session
	saveErr error
}

func newMemSessions() *memSessions {
	return &memSessions{saved: make(map[string]sessionStore.Session)}
}

func (m *memSessions) Get(_ context.Context, id string) (sessionStore.Session, error) {
	s, ok := m.saved[id]
	if !ok {
		return sessionStore.Session{}, sessionStore.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) Save(_ context.Context, s sessionStore.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[s.ID] = s
	return nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	delete(m.saved, id)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// mockAuthAPI implements AuthAPIForLogin and AuthAPIForRegister.
type mockAuthAPI struct {
	token       string
	loginErr    error
	registerMsg string
	registerErr error
	lastEmail   string
}

func (m *mockAuthAPI) Login(_ context.Context, email, _ string) (string, error) {
	m.lastEmail = email
	if m.loginErr != nil {
		return "", m.loginErr
	}
	return m.token, nil
}

func (m *mockAuthAPI) Register(_ context.Context, _, email, _ string) (string, error) {
	m.lastEmail = email
	if m.registerErr != nil {
		return "", m.registerErr
	}
	return m.registerMsg, nil
}

// TestExecuteLogin_Success verifies the token is exchanged, the identity
// resolved, and a session persisted.
func TestExecuteLogin_Success(t *testing.T) {
	api := &mockAuthAPI{token: signToken(t, jwt.MapClaims{
		"email": "coach@example.com",
		"name":  "Thandi Nkosi",
		"role":  "User",
	})}
	sessions := newMemSessions()

	res, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "coach@example.com",
		Password: "pw",
	}, LoginDeps{API: api, Sessions: sessions, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Email != "coach@example.com" || res.DisplayName != "Thandi Nkosi" || res.Role != "User" {
		t.Errorf("result = %+v", res)
	}
	if res.IsAdmin {
		t.Error("plain user must not be admin")
	}

	sess, ok := sessions.saved[res.SessionID]
	if !ok {
		t.Fatal("session not persisted")
	}
	if sess.APIToken != api.token || sess.Email != "coach@example.com" {
		t.Errorf("session = %+v", sess)
	}
	if !sess.ExpiresAt.Equal(fixedTime.Add(sessionStore.TTL)) {
		t.Errorf("ExpiresAt = %v", sess.ExpiresAt)
	}
}

// TestExecuteLogin_AdminRole verifies admin detection from the token role.
func TestExecuteLogin_AdminRole(t *testing.T) {
	api := &mockAuthAPI{token: signToken(t, jwt.MapClaims{
		"sub":  "admin@example.com",
		"role": "Admin",
	})}

	res, err := ExecuteLogin(context.Background(), LoginInput{Email: "admin@example.com", Password: "pw"},
		LoginDeps{API: api, Sessions: newMemSessions(), Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsAdmin {
		t.Error("expected admin")
	}
}

// TestExecuteLogin_BadCredentials verifies API rejection maps to the
// credentials sentinel.
func TestExecuteLogin_BadCredentials(t *testing.T) {
	api := &mockAuthAPI{loginErr: errors.New("(400) Invalid email or password.")}

	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "a@b.c", Password: "wrong"},
		LoginDeps{API: api, Sessions: newMemSessions(), Now: fixedNow})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

// TestExecuteLogin_EmptyInput verifies blank fields never reach the API.
func TestExecuteLogin_EmptyInput(t *testing.T) {
	api := &mockAuthAPI{token: "unused"}
	_, err := ExecuteLogin(context.Background(), LoginInput{}, LoginDeps{API: api, Sessions: newMemSessions()})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
	if api.lastEmail != "" {
		t.Error("API called with empty credentials")
	}
}

// TestExecuteLogin_NoIdentityInToken verifies a token without a resolvable
// email fails the login.
func TestExecuteLogin_NoIdentityInToken(t *testing.T) {
	api := &mockAuthAPI{token: signToken(t, jwt.MapClaims{"foo": "bar"})}
	sessions := newMemSessions()

	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "a@b.c", Password: "pw"},
		LoginDeps{API: api, Sessions: sessions, Now: fixedNow})
	if !errors.Is(err, ErrNoIdentity) {
		t.Errorf("want ErrNoIdentity, got %v", err)
	}
	if len(sessions.saved) != 0 {
		t.Error("no session should exist")
	}
}

// TestExecuteRegister verifies validation and message passthrough.
func TestExecuteRegister(t *testing.T) {
	api := &mockAuthAPI{registerMsg: "Registration successful!"}

	msg, err := ExecuteRegister(context.Background(), RegisterInput{
		Name: "Thandi", Email: "coach@example.com", Password: "pw",
	}, RegisterDeps{API: api})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Registration successful!" {
		t.Errorf("msg = %q", msg)
	}

	if _, err := ExecuteRegister(context.Background(), RegisterInput{Name: " ", Email: "e", Password: "p"},
		RegisterDeps{API: api}); !errors.Is(err, ErrIncompleteRegistration) {
		t.Errorf("want ErrIncompleteRegistration, got %v", err)
	}
}

// TestExecuteLogout verifies the session row is removed.
func TestExecuteLogout(t *testing.T) {
	sessions := newMemSessions()
	sessions.saved["sid"] = sessionStore.Session{ID: "sid"}

	if err := ExecuteLogout(context.Background(), "sid", LogoutDeps{Sessions: sessions}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sessions.saved["sid"]; ok {
		t.Error("session still present")
	}

	// Empty session ID is a no-op.
	if err := ExecuteLogout(context.Background(), "", LogoutDeps{Sessions: sessions}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
