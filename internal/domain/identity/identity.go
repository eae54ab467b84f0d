package identity

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role constants as issued by the remote API.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// Claim-name aliases probed in order. The remote API has issued tokens with
// plain JSON claim names and with the legacy XML-namespace URIs, depending
// on its framework version, so the reader tolerates all of them.
var (
	emailAliases = []string{
		"email",
		"sub",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/email",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress",
	}
	roleAliases = []string{
		"role",
		"http://schemas.microsoft.com/ws/2008/06/identity/claims/role",
	}
	nameAliases = []string{
		"name",
		"unique_name",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name",
	}
)

// Identity is the resolved user context: who is acting, under what role,
// and how to address them. Zero-value fields mean "undeterminable"; the
// caller must treat that as a re-authentication condition, not a crash.
type Identity struct {
	Email       string
	DisplayName string
	Role        string
}

// IsResolvable reports whether the identity can back authenticated calls.
// INVARIANT: Identity fields are not mutated
func (id Identity) IsResolvable() bool {
	return id.Email != ""
}

// IsAdmin reports whether the identity carries any non-User role.
// INVARIANT: Identity fields are not mutated
func (id Identity) IsAdmin() bool {
	return IsAdminRole(id.Role)
}

// IsAdminRole reports whether role grants access to the admin surface.
// The remote API treats every role other than User as administrative, and
// role casing varies between token and user-list payloads, so the check
// trims and case-folds.
func IsAdminRole(role string) bool {
	r := strings.ToLower(strings.TrimSpace(role))
	return r != "" && r != "user"
}

// Resolve produces an Identity from a possibly-partial cached identity and
// a possibly-absent bearer token. Cached values win; anything missing is
// probed from the token's claims. A malformed token contributes nothing:
// decoding failure is "undeterminable", never an error.
// POST: Role defaults to User whenever an email was resolvable
func Resolve(cached Identity, token string) Identity {
	out := cached
	if out.Email != "" && out.DisplayName != "" && out.Role != "" {
		return out
	}

	claims := decodeClaims(token)
	if out.Email == "" {
		out.Email = probe(claims, emailAliases)
	}
	if out.DisplayName == "" {
		out.DisplayName = probe(claims, nameAliases)
	}
	if out.Role == "" {
		out.Role = probe(claims, roleAliases)
	}
	if out.Role == "" && out.Email != "" {
		out.Role = RoleUser
	}
	return out
}

// decodeClaims extracts the token's payload without verifying the
// signature. The remote API owns the signing key; the client only reads
// claims for display and routing, and the API re-checks the token on every
// authenticated call.
func decodeClaims(token string) jwt.MapClaims {
	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

// probe returns the first non-empty string value among the aliases.
func probe(claims jwt.MapClaims, aliases []string) string {
	for _, key := range aliases {
		if v, ok := claims[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}
