package projections

import (
	"context"
	"sort"
	"strings"

	"etag/internal/adapters/claimsapi"
	"etag/internal/domain/identity"
)

// Sports is the fixed list of sports a coach can be registered under, in
// display order.
var Sports = []string{
	"Soccer",
	"Basketball",
	"Tennis",
	"Squash",
	"Rugby",
	"Hockey",
	"Swimming",
	"Water Polo",
	"Athletics",
}

// GetCoachesAPI defines the remote API surface for the coach directory.
type GetCoachesAPI interface {
	GetAllUsers(ctx context.Context, token string) ([]claimsapi.User, error)
}

// GetCoachesQuery carries query parameters for the coach directory.
type GetCoachesQuery struct {
	Token string
	// Sport filters to one sport from the fixed list; empty means all.
	Sport string
}

// GetCoachesDeps holds dependencies for the coach directory.
type GetCoachesDeps struct {
	API GetCoachesAPI
}

// CoachesView is the admin coach directory model.
type CoachesView struct {
	Coaches []claimsapi.User
	// Sports echoes the fixed sport list for the filter control.
	Sports []string
	// Sport is the active filter, empty for all.
	Sport string
}

// QueryGetCoaches lists registered coaches with their rates, excluding
// administrative accounts, optionally filtered to one sport.
// PRE: token belongs to an admin session
// POST: Coaches are sorted by name; admin accounts never appear
func QueryGetCoaches(ctx context.Context, query GetCoachesQuery, deps GetCoachesDeps) (CoachesView, error) {
	users, err := deps.API.GetAllUsers(ctx, query.Token)
	if err != nil {
		return CoachesView{}, err
	}

	coaches := make([]claimsapi.User, 0, len(users))
	for _, u := range users {
		if identity.IsAdminRole(u.Role) {
			continue
		}
		if query.Sport != "" && !strings.EqualFold(u.Sport, query.Sport) {
			continue
		}
		coaches = append(coaches, u)
	}

	sort.Slice(coaches, func(i, j int) bool {
		return strings.ToLower(coaches[i].Name) < strings.ToLower(coaches[j].Name)
	})

	return CoachesView{Coaches: coaches, Sports: Sports, Sport: query.Sport}, nil
}
