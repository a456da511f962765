package timestamp

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var numericOffset = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func TestNormalize(t *testing.T) {
	n := New(kolkata(t))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"offset kept", "2026-01-20T18:00:00+05:30", "2026-01-20T18:00:00+05:30"},
		{"negative offset kept", "2026-01-20T18:00:00-08:00", "2026-01-20T18:00:00-08:00"},
		{"zulu rendered numerically", "2026-01-20T12:30:00Z", "2026-01-20T12:30:00+00:00"},
		{"fractional seconds dropped", "2026-01-20T12:30:00.123Z", "2026-01-20T12:30:00+00:00"},
		{"naive gets session zone", "2026-01-20T18:00:00", "2026-01-20T18:00:00+05:30"},
		{"naive without seconds", "2026-01-20T18:00", "2026-01-20T18:00:00+05:30"},
		{"space separated", "2026-01-20 09:15:00", "2026-01-20T09:15:00+05:30"},
		{"date only is midnight", "2026-01-20", "2026-01-20T00:00:00+05:30"},
		{"surrounding whitespace", "  2026-01-20T18:00:00  ", "2026-01-20T18:00:00+05:30"},
		{"empty stays empty", "", ""},
		{"garbage treated as utc", "next tuesday", "next tuesday+00:00"},
		{"garbage with zulu", "20260120T1800Z", "20260120T1800+00:00"},
		{"garbage with offset untouched", "20260120T1800+05:30", "20260120T1800+05:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalize_AlwaysNumericOffset(t *testing.T) {
	n := New(nil)
	inputs := []string{
		"2026-01-20T18:00:00Z",
		"2026-01-20T18:00:00",
		"2026-03-29T02:30:00",
		"2026-01-20",
		"whenever",
	}
	for _, in := range inputs {
		out := n.Normalize(in)
		assert.Regexp(t, numericOffset, out, "input %q", in)
	}
}

func TestNormalize_NilLocationIsUTC(t *testing.T) {
	n := Normalizer{}
	assert.Equal(t, "2026-01-20T18:00:00+00:00", n.Normalize("2026-01-20T18:00:00"))
}

func TestParse(t *testing.T) {
	n := New(kolkata(t))

	got, ok := n.Parse("2026-01-20T18:00:00")
	require.True(t, ok)
	_, offset := got.Zone()
	assert.Equal(t, 5*3600+30*60, offset)

	_, ok = n.Parse("not a date")
	assert.False(t, ok)

	_, ok = n.Parse("")
	assert.False(t, ok)
}

func TestLoadLocation(t *testing.T) {
	fallback := time.FixedZone("fallback", 3600)

	assert.Equal(t, "Europe/Berlin", LoadLocation("Europe/Berlin", fallback).String())
	assert.Equal(t, fallback, LoadLocation("", fallback))
	assert.Equal(t, fallback, LoadLocation("Mars/Olympus", fallback))
	assert.Equal(t, time.UTC, LoadLocation("", nil))
}
