package models

import (
	"errors"
	"strings"
	"time"
)

// ErrSiteNotFound is returned when a site id or URL has no matching record.
var ErrSiteNotFound = errors.New("site not found")

// ErrDuplicateURL is returned when adding a site whose URL is already monitored.
var ErrDuplicateURL = errors.New("site URL already monitored")

// CheckStyle selects how the next poll delay is computed for a site.
type CheckStyle string

const (
	// CheckStyleRandom polls at the base interval plus uniform jitter.
	CheckStyleRandom CheckStyle = "random"
	// CheckStyleExponential doubles the delay after each consecutive failure.
	CheckStyleExponential CheckStyle = "exponential"
	// CheckStyleNone polls at the fixed base interval.
	CheckStyleNone CheckStyle = "none"
)

// ParseCheckStyle converts a user-supplied style string to a CheckStyle.
// Matching is case-insensitive; the empty string maps to CheckStyleRandom,
// the default for new sites.
func ParseCheckStyle(s string) (CheckStyle, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "random", "":
		return CheckStyleRandom, true
	case "exponential":
		return CheckStyleExponential, true
	case "none":
		return CheckStyleNone, true
	default:
		return "", false
	}
}

// SiteStatus reflects the outcome of a site's most recent fetch attempt.
type SiteStatus string

const (
	// SiteStatusPending means no check has completed yet.
	SiteStatusPending SiteStatus = "pending"
	// SiteStatusOK means the most recent fetch succeeded.
	SiteStatusOK SiteStatus = "ok"
	// SiteStatusError means the most recent fetch failed.
	SiteStatusError SiteStatus = "error"
)

// Site is one monitored target. ID and URL are immutable after creation;
// style changes require re-adding the site.
type Site struct {
	ID           int64      `json:"id"`
	URL          string     `json:"url"`
	IntervalSecs int        `json:"interval_secs"`
	Style        CheckStyle `json:"style"`
	Status       SiteStatus `json:"status"`
	LastChecked  *time.Time `json:"last_checked,omitempty"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
}

// Interval returns the site's base poll interval as a duration.
func (s *Site) Interval() time.Duration {
	return time.Duration(s.IntervalSecs) * time.Second
}
