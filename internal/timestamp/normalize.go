// Package timestamp coerces user and model supplied date-times into an
// unambiguous, offset-qualified wire format.
package timestamp

import (
	"regexp"
	"strings"
	"time"
)

// WireLayout is the format sent to the calendar provider. Unlike
// time.RFC3339 it renders UTC as "+00:00" rather than "Z", so the offset is
// always numeric.
const WireLayout = "2006-01-02T15:04:05-07:00"

// utcMarker is appended to text that cannot be parsed at all.
const utcMarker = "+00:00"

var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

var trailingOffset = regexp.MustCompile(`[+-]\d{2}:?\d{2}$`)

// Normalizer attaches a default zone to naive timestamps.
type Normalizer struct {
	// Location is applied to timestamps that carry no offset.
	// A nil Location means UTC.
	Location *time.Location
}

// New returns a Normalizer for the given zone.
func New(loc *time.Location) Normalizer {
	return Normalizer{Location: loc}
}

func (n Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}

// Parse interprets text as a date-time. Values without an offset are placed
// in the normalizer's zone. The second result is false when text is not a
// recognizable date-time.
func (n Normalizer) Parse(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	loc := n.location()
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize returns text as an offset-qualified timestamp.
//
// Text that does not parse is not rejected: it is treated as UTC by
// replacing a trailing "Z" or appending "+00:00". The provider rejects
// strings that are still malformed after that.
func (n Normalizer) Normalize(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return s
	}
	if t, ok := n.Parse(s); ok {
		return Format(t)
	}
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return s[:len(s)-1] + utcMarker
	}
	if trailingOffset.MatchString(s) {
		return s
	}
	return s + utcMarker
}

// Format renders t in WireLayout, keeping t's own offset.
func Format(t time.Time) string {
	return t.Format(WireLayout)
}

// LoadLocation resolves an IANA zone id. Empty or unknown ids resolve to
// fallback, and a nil fallback means UTC.
func LoadLocation(name string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}
