package orchestrators

import (
	"errors"

	"etag/internal/adapters/claimsapi"
)

// isUnauthorized reports whether the remote API rejected the bearer token.
// Callers translate this into a forced logout.
func isUnauthorized(err error) bool {
	return errors.Is(err, claimsapi.ErrUnauthorized)
}
