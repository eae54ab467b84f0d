package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sessionStore "etag/internal/adapters/storage/session"
)

var testSession = sessionStore.Session{
	ID:          "sid-1",
	APIToken:    "tok",
	Email:       "coach@example.com",
	DisplayName: "Thandi Nkosi",
	Role:        "User",
}

// stubSessions serves a single seeded session.
type stubSessions struct {
	session sessionStore.Session
}

func (s *stubSessions) Get(_ context.Context, id string) (sessionStore.Session, error) {
	if id != s.session.ID {
		return sessionStore.Session{}, sessionStore.ErrNotFound
	}
	return s.session, nil
}

func (s *stubSessions) Save(_ context.Context, _ sessionStore.Session) error { return nil }
func (s *stubSessions) Delete(_ context.Context, _ string) error             { return nil }
func (s *stubSessions) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func TestAuthLoadsSessionFromCookie(t *testing.T) {
	var got sessionStore.Session
	var ok bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetSessionFromContext(r.Context())
	})

	h := Auth(&stubSessions{session: testSession})(inner)

	req := httptest.NewRequest("GET", "/geotag", nil)
	req.AddCookie(&http.Cookie{Name: "etag_session", Value: "sid-1"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatal("session not set in context")
	}
	if got.Email != "coach@example.com" || got.APIToken != "tok" {
		t.Errorf("session = %+v", got)
	}
}

func TestAuthUnknownCookiePassesThrough(t *testing.T) {
	var ok bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = GetSessionFromContext(r.Context())
	})

	h := Auth(&stubSessions{session: testSession})(inner)

	req := httptest.NewRequest("GET", "/geotag", nil)
	req.AddCookie(&http.Cookie{Name: "etag_session", Value: "bogus"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if ok {
		t.Error("no session should be set for an unknown cookie")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, handler must still run", rec.Code)
	}
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/geotag", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"admin allowed", "Admin", http.StatusOK},
		{"uppercase admin allowed", "ADMIN", http.StatusOK},
		{"user forbidden", "User", http.StatusForbidden},
		{"lowercase user forbidden", "user", http.StatusForbidden},
		{"padded uppercase user forbidden", "USER ", http.StatusForbidden},
		{"blank role forbidden", "  ", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			sess := testSession
			sess.Role = tt.role
			req := httptest.NewRequest("GET", "/admin", nil)
			req = req.WithContext(ContextWithSession(req.Context(), sess))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	t.Run("anonymous redirected", func(t *testing.T) {
		h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/admin", nil))
		if rec.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want 303", rec.Code)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request should be limited")
	}
	// Another IP has its own bucket.
	if !rl.Allow("10.0.0.2") {
		t.Error("other IP should be allowed")
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	for _, header := range []string{
		"Content-Security-Policy",
		"X-Frame-Options",
		"X-Content-Type-Options",
		"Referrer-Policy",
	} {
		if rec.Header().Get(header) == "" {
			t.Errorf("missing %s header", header)
		}
	}
}

func TestTimingCapturesStatus(t *testing.T) {
	h := Timing(DefaultSlowRequestMs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/geotag", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "sid-1")

	res := rec.Result()
	cookies := res.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != "etag_session" || c.Value != "sid-1" {
		t.Errorf("cookie = %+v", c)
	}
	if !c.HttpOnly || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie flags = %+v", c)
	}

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec)
	c = rec.Result().Cookies()[0]
	if c.MaxAge != -1 {
		t.Errorf("clear MaxAge = %d, want -1", c.MaxAge)
	}
}
