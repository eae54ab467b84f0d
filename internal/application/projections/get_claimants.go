package projections

import (
	"context"
	"sort"
	"strings"

	"etag/internal/adapters/claimsapi"
)

// GetClaimantsAPI defines the remote API surface for the claimant list.
type GetClaimantsAPI interface {
	Claimants(ctx context.Context, token string) ([]claimsapi.Claimant, error)
}

// GetClaimantsDeps holds dependencies for the claimant list.
type GetClaimantsDeps struct {
	API GetClaimantsAPI
}

// ClaimantsView is the admin dashboard model: one row per coach with open
// claims, plus the grand totals across all of them.
type ClaimantsView struct {
	Claimants     []claimsapi.Claimant
	TotalSessions int
	TotalOwed     float64
}

// QueryGetClaimants fetches the per-coach claim aggregates for the admin
// dashboard, sorted by name.
// PRE: token belongs to an admin session
func QueryGetClaimants(ctx context.Context, token string, deps GetClaimantsDeps) (ClaimantsView, error) {
	rows, err := deps.API.Claimants(ctx, token)
	if err != nil {
		return ClaimantsView{}, err
	}

	sort.Slice(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})

	view := ClaimantsView{Claimants: rows}
	for _, r := range rows {
		view.TotalSessions += r.TotalSessions
		view.TotalOwed += r.NetTotal
	}
	return view, nil
}
