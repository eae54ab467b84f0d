package claimsapi

import (
	"time"

	"etag/internal/domain/claim"
)

// The remote API emits both lower-camel and upper-camel field names
// depending on endpoint. encoding/json matches struct tags
// case-insensitively, so the raw types below accept either casing; the
// canonical() methods finish normalization (timestamp parsing, defaults).

// timestampLayouts covers the wire formats the API has been observed to
// emit: RFC3339 with and without fractional seconds, and a zone-less
// variant treated as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

type rawTag struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address"`
	SessionType string  `json:"sessionType"`
	IPAddress   string  `json:"ip"`
	Rate        float64 `json:"rate"`
	CreatedAt   string  `json:"createdAt"`
}

func (r rawTag) canonical() claim.Tag {
	return claim.Tag{
		ID:          r.ID,
		Email:       r.Email,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Address:     r.Address,
		SessionType: r.SessionType,
		IPAddress:   r.IPAddress,
		Rate:        r.Rate,
		CreatedAt:   parseTimestamp(r.CreatedAt),
	}
}

type rawUser struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	Sport         string  `json:"sport"`
	PreseasonRate float64 `json:"preseasonRate"`
	GameRate      float64 `json:"gameRate"`
	PracticeRate  float64 `json:"practiceRate"`
	CreatedAt     string  `json:"createdAt"`
}

func (r rawUser) canonical() User {
	return User{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		Role:          r.Role,
		Sport:         r.Sport,
		PreseasonRate: r.PreseasonRate,
		GameRate:      r.GameRate,
		PracticeRate:  r.PracticeRate,
		CreatedAt:     parseTimestamp(r.CreatedAt),
	}
}

type rawClaimant struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	TotalSessions int     `json:"totalSessions"`
	NetTotal      float64 `json:"netTotal"`
}

func (r rawClaimant) canonical() Claimant {
	return Claimant(r)
}
