package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoneRegion(t *testing.T) {
	tests := []struct {
		zone string
		want string
	}{
		{"Asia/Kolkata", "Asia"},
		{"America/Argentina/Buenos_Aires", "America"},
		{"UTC", "UTC"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			assert.Equal(t, tt.want, ZoneRegion(tt.zone))
		})
	}
}

func TestCredentialFingerprint(t *testing.T) {
	a := CredentialFingerprint("ya29.first")
	b := CredentialFingerprint("ya29.second")

	assert.Len(t, a, 12)
	assert.Equal(t, a, CredentialFingerprint("ya29.first"))
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "ya29")
	assert.Empty(t, CredentialFingerprint(""))
}
