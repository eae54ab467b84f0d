package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"etag/internal/domain/claim"
	"etag/internal/domain/location"
)

// ClaimsAPIForTagging defines the remote API surface needed by TagSession.
type ClaimsAPIForTagging interface {
	ListTags(ctx context.Context, token, email string) ([]claim.Tag, error)
	SubmitTag(ctx context.Context, token string, draft claim.Draft) error
}

// TagSessionInput carries input for the tag-session orchestrator.
type TagSessionInput struct {
	Email       string
	Token       string
	SessionType string
	// Fix is the browser-reported position; nil means the platform could
	// not provide one.
	Fix      *location.Fix
	ClientIP string
	// Location is the viewer's timezone for the once-per-day check.
	Location *time.Location
}

// TagSessionResult reports the resolved position and submission outcome.
type TagSessionResult struct {
	Latitude     float64
	Longitude    float64
	Address      string
	AddressFound bool
	// Warning is a non-fatal message (e.g. default location fallback).
	Warning string
}

// TagSessionDeps holds dependencies for TagSession.
type TagSessionDeps struct {
	API      ClaimsAPIForTagging
	Geocoder location.Geocoder
	Fallback location.Fix
	Now      func() time.Time
}

var (
	ErrAlreadyTagged = errors.New("a session has already been tagged today")
	ErrTagRejected   = errors.New("the claims service rejected the tag")
)

// ExecuteTagSession records one coaching session at the coach's current
// position. The once-per-day check runs against a fresh fetch of the
// coach's tags before any geolocation work; a fetch failure other than an
// auth rejection counts as "not yet tagged".
// PRE: input.Email and input.Token are non-empty
// POST: On success exactly one new tag exists for the coach
func ExecuteTagSession(ctx context.Context, input TagSessionInput, deps TagSessionDeps) (TagSessionResult, error) {
	if input.Email == "" || input.Token == "" {
		return TagSessionResult{}, ErrNoIdentity
	}
	if !claim.IsValidType(input.SessionType) {
		return TagSessionResult{}, claim.ErrInvalidSessionType
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	loc := input.Location
	if loc == nil {
		loc = time.Local
	}

	tags, err := deps.API.ListTags(ctx, input.Token, "")
	switch {
	case err == nil:
		if claim.TaggedOn(tags, now(), loc) {
			return TagSessionResult{}, ErrAlreadyTagged
		}
	case isUnauthorized(err):
		return TagSessionResult{}, err
	default:
		// Known risk: an unreachable claims service lets the coach tag
		// again; the server-side record remains the source of truth.
		slog.Warn("daily_guard_skipped", "email", input.Email, "error", err)
	}

	resolver := location.NewResolver(deps.Geocoder, deps.Fallback)
	resolved, err := resolver.Resolve(ctx, input.Fix)
	if err != nil {
		slog.Error("geocode_failed", "email", input.Email, "error", err)
		return TagSessionResult{}, err
	}

	draft := claim.Draft{
		Email:       input.Email,
		Latitude:    resolved.Latitude,
		Longitude:   resolved.Longitude,
		Address:     resolved.Address,
		SessionType: input.SessionType,
		IPAddress:   input.ClientIP,
	}
	if err := draft.Validate(); err != nil {
		return TagSessionResult{}, err
	}

	if err := deps.API.SubmitTag(ctx, input.Token, draft); err != nil {
		if isUnauthorized(err) {
			return TagSessionResult{}, err
		}
		slog.Error("event", "event", "tag_submit_failed", "email", input.Email, "error", err)
		return TagSessionResult{}, errors.Join(ErrTagRejected, err)
	}

	slog.Info("event", "event", "session_tagged",
		"email", input.Email,
		"session_type", input.SessionType,
		"address_found", resolved.AddressFound,
	)

	return TagSessionResult{
		Latitude:     resolved.Latitude,
		Longitude:    resolved.Longitude,
		Address:      resolved.Address,
		AddressFound: resolved.AddressFound,
		Warning:      resolved.Warning,
	}, nil
}
