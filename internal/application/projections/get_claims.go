package projections

import (
	"context"
	"time"

	"etag/internal/domain/claim"
)

// GetClaimsAPI defines the remote API surface for the claims view.
type GetClaimsAPI interface {
	ListTags(ctx context.Context, token, email string) ([]claim.Tag, error)
}

// GetClaimsQuery carries query parameters for a coach's own claims view.
type GetClaimsQuery struct {
	Token string
	// Location is the viewer's timezone for the tagged-today flag.
	Location *time.Location
}

// GetClaimsDeps holds dependencies for the claims view.
type GetClaimsDeps struct {
	API GetClaimsAPI
	Now func() time.Time
}

// ClaimsView is a coach's claims page model: the raw records in the order
// the service returned them, the derived totals, and whether a session has
// already been tagged today.
type ClaimsView struct {
	Tags        []claim.Tag
	Summary     claim.Summary
	TaggedToday bool
}

// QueryGetClaims fetches the signed-in coach's tags and folds the summary.
// POST: Tags keep the service's ordering; Summary is recomputed every call
func QueryGetClaims(ctx context.Context, query GetClaimsQuery, deps GetClaimsDeps) (ClaimsView, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	loc := query.Location
	if loc == nil {
		loc = time.Local
	}

	tags, err := deps.API.ListTags(ctx, query.Token, "")
	if err != nil {
		return ClaimsView{}, err
	}

	return ClaimsView{
		Tags:        tags,
		Summary:     claim.Summarize(tags),
		TaggedToday: claim.TaggedOn(tags, now(), loc),
	}, nil
}
