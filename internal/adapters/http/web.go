// Package web wires the HTTP surface: routing, middleware, templates, and
// the handlers that drive the remote claims API.
package web

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"etag/internal/adapters/claimsapi"
	"etag/internal/adapters/email"
	"etag/internal/adapters/http/middleware"
	auditStore "etag/internal/adapters/storage/audit"
	noticeStore "etag/internal/adapters/storage/notice"
	sessionStore "etag/internal/adapters/storage/session"
	"etag/internal/config"
	"etag/internal/domain/claim"
	"etag/internal/domain/location"
)

// ClaimsAPI is the remote claims API surface the handlers depend on.
// *claimsapi.Client satisfies it; tests substitute a mock.
type ClaimsAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (string, error)
	GetAllUsers(ctx context.Context, token string) ([]claimsapi.User, error)
	ListTags(ctx context.Context, token, email string) ([]claim.Tag, error)
	SubmitTag(ctx context.Context, token string, draft claim.Draft) error
	Claimants(ctx context.Context, token string) ([]claimsapi.Claimant, error)
	ClearClaims(ctx context.Context, token, email string) (string, error)
}

// Deps holds all adapter dependencies for the HTTP layer.
type Deps struct {
	API      ClaimsAPI
	Geocoder location.Geocoder
	Sessions sessionStore.Store
	Notices  noticeStore.Store
	Audit    auditStore.Store
	Email    email.Sender
}

// Global deps and config (set by NewMux)
var deps *Deps

var appConfig config.Config

// NewMux wires HTTP handlers for the app.
func NewMux(cfg config.Config, d *Deps) http.Handler {
	deps = d
	appConfig = cfg
	middleware.SecureCookies = cfg.IsProd()

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)

	// Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF([]byte(cfg.CSRFKey), cfg.IsProd(), trustedOrigins(cfg.Addr)),
		middleware.Auth(d.Sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(middleware.DefaultSlowRequestMs),
	)
}

// trustedOrigins derives the local origins the CSRF layer should trust
// from the listen address.
func trustedOrigins(addr string) []string {
	port := "8080"
	if _, p, err := net.SplitHostPort(addr); err == nil && p != "" {
		port = p
	} else if strings.HasPrefix(addr, ":") {
		port = strings.TrimPrefix(addr, ":")
	}
	return []string{"localhost:" + port, "127.0.0.1:" + port}
}
