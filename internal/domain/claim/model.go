package claim

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Session type constants. The remote API derives the rate for each type
// from the coach's registered rates.
const (
	TypePreseason = "Preseason"
	TypePractice  = "Practice"
	TypeGame      = "Game"
)

// ValidTypes contains all valid session type values.
var ValidTypes = []string{TypePreseason, TypePractice, TypeGame}

// Domain errors
var (
	ErrEmptyEmail         = errors.New("owner email cannot be empty")
	ErrInvalidSessionType = errors.New("session type must be one of: Preseason, Practice, Game")
	ErrEmptyAddress       = errors.New("address cannot be empty")
)

// Tag is one recorded coaching session: where, when, what kind, and the
// rate the server derived for it. Tags are immutable on the client; the
// only destructive operation is the admin bulk clear by owner email.
type Tag struct {
	ID          string
	Email       string
	Latitude    float64
	Longitude   float64
	Address     string
	SessionType string
	IPAddress   string
	Rate        float64
	CreatedAt   time.Time
}

// Summary is the derived aggregate over one owner's tags. It is recomputed
// on every fetch and never stored.
type Summary struct {
	TotalSessions int
	CountsByType  map[string]int
	NetTotal      float64
}

// Draft carries the fields a client supplies when submitting a new tag.
// The server assigns ID, CreatedAt, and Rate.
type Draft struct {
	Email       string
	Latitude    float64
	Longitude   float64
	Address     string
	SessionType string
	IPAddress   string
}

// Validate checks that the Draft can be submitted.
// PRE: Draft fields are populated by the tagging flow
// POST: Returns nil if valid, a domain error otherwise
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return ErrEmptyEmail
	}
	if !IsValidType(d.SessionType) {
		return ErrInvalidSessionType
	}
	if strings.TrimSpace(d.Address) == "" {
		return ErrEmptyAddress
	}
	return nil
}

// IsValidType reports whether s is a known session type.
func IsValidType(s string) bool {
	for _, t := range ValidTypes {
		if t == s {
			return true
		}
	}
	return false
}

// DateKey returns the tag's local calendar-date key (YYYY-MM-DD) in loc.
// Day-boundary comparisons always use this key, never raw timestamps.
// INVARIANT: Tag fields are not mutated
func (t Tag) DateKey(loc *time.Location) string {
	return t.CreatedAt.In(loc).Format("2006-01-02")
}

// TaggedOn reports whether any tag falls on the same local calendar date
// as day, both evaluated in loc. An empty tag set yields false.
// INVARIANT: order-independent; tags are not mutated
func TaggedOn(tags []Tag, day time.Time, loc *time.Location) bool {
	key := day.In(loc).Format("2006-01-02")
	for _, t := range tags {
		if t.DateKey(loc) == key {
			return true
		}
	}
	return false
}

// Summarize folds a set of tags into a Summary. Missing rates count as 0.
// The fold is pure and order-independent; grouping by session type and
// summing the partitions always equals TotalSessions.
func Summarize(tags []Tag) Summary {
	s := Summary{
		TotalSessions: len(tags),
		CountsByType:  make(map[string]int),
	}
	for _, t := range tags {
		s.CountsByType[t.SessionType]++
		s.NetTotal += t.Rate
	}
	return s
}

// NetTotal sums the rate column over tags, treating missing rates as 0.
func NetTotal(tags []Tag) float64 {
	var total float64
	for _, t := range tags {
		total += t.Rate
	}
	return total
}

// SortByCreatedAt orders tags ascending by creation timestamp, in place.
// The spreadsheet export relies on this ordering.
func SortByCreatedAt(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].CreatedAt.Before(tags[j].CreatedAt)
	})
}
