package projections

import (
	"context"

	"etag/internal/domain/claim"
)

// GetUserClaimsQuery carries query parameters for the admin per-coach view.
type GetUserClaimsQuery struct {
	Token       string
	TargetEmail string
	// DisplayName is shown in the page heading and the export filename.
	DisplayName string
}

// GetUserClaimsDeps holds dependencies for the per-coach view.
type GetUserClaimsDeps struct {
	API GetClaimsAPI
}

// UserClaimsView is the admin drill-down model for one coach. The net
// total is recomputed here from the rows rather than trusted from any
// aggregate endpoint.
type UserClaimsView struct {
	Email       string
	DisplayName string
	Tags        []claim.Tag
	Summary     claim.Summary
}

// QueryGetUserClaims fetches one coach's per-session rows for admin review
// and export.
// PRE: token belongs to an admin session; TargetEmail is non-empty
func QueryGetUserClaims(ctx context.Context, query GetUserClaimsQuery, deps GetUserClaimsDeps) (UserClaimsView, error) {
	tags, err := deps.API.ListTags(ctx, query.Token, query.TargetEmail)
	if err != nil {
		return UserClaimsView{}, err
	}

	name := query.DisplayName
	if name == "" {
		name = query.TargetEmail
	}

	return UserClaimsView{
		Email:       query.TargetEmail,
		DisplayName: name,
		Tags:        tags,
		Summary:     claim.Summarize(tags),
	}, nil
}
