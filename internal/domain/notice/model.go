// Package notice models announcements shown to coaches on the tagging page.
package notice

import (
	"errors"
	"time"
)

// Predefined highlight colours for announcements.
const (
	ColorOrange = "orange" // #F9B232, default
	ColorRed    = "red"    // #e74c3c
	ColorGreen  = "green"  // #27ae60
	ColorBlue   = "blue"   // #2980b9
	ColorGrey   = "grey"   // #7f8c8d
)

// ColorHex maps preset names to hex values.
var ColorHex = map[string]string{
	ColorOrange: "#F9B232",
	ColorRed:    "#e74c3c",
	ColorGreen:  "#27ae60",
	ColorBlue:   "#2980b9",
	ColorGrey:   "#7f8c8d",
}

// ValidColors contains all valid colour preset names.
var ValidColors = []string{ColorOrange, ColorRed, ColorGreen, ColorBlue, ColorGrey}

// Domain errors
var (
	ErrEmptyTitle   = errors.New("notice title cannot be empty")
	ErrEmptyContent = errors.New("notice content cannot be empty")
	ErrInvalidColor = errors.New("notice color must be one of: orange, red, green, blue, grey")
)

// Notice is an announcement posted by an administrator.
// Content supports Markdown formatting.
type Notice struct {
	ID           string
	Title        string
	Content      string // Markdown content
	CreatedBy    string // Email of the posting administrator
	AuthorName   string // Display name of the author
	ShowAuthor   bool   // Whether to show author name when displayed
	Color        string // Highlight colour preset
	Pinned       bool   // Whether pinned to top of the announcement list
	PinnedAt     time.Time
	VisibleFrom  time.Time // Scheduled appearance (zero = immediately)
	VisibleUntil time.Time // Scheduled disappearance (zero = indefinite)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks if the Notice has valid data.
// PRE: Notice struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notice) Validate() error {
	if n.Title == "" {
		return ErrEmptyTitle
	}
	if n.Content == "" {
		return ErrEmptyContent
	}
	if n.Color != "" && !isValidColor(n.Color) {
		return ErrInvalidColor
	}
	return nil
}

// EffectiveColor returns the color hex value, defaulting to orange.
func (n *Notice) EffectiveColor() string {
	if hex, ok := ColorHex[n.Color]; ok {
		return hex
	}
	return ColorHex[ColorOrange]
}

// IsVisibleAt reports whether the notice should be shown at the given time
// according to its visibility window.
func (n *Notice) IsVisibleAt(now time.Time) bool {
	if !n.VisibleFrom.IsZero() && now.Before(n.VisibleFrom) {
		return false
	}
	if !n.VisibleUntil.IsZero() && !now.Before(n.VisibleUntil) {
		return false
	}
	return true
}

func isValidColor(c string) bool {
	_, ok := ColorHex[c]
	return ok
}
