package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T, handler http.HandlerFunc) *Validator {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	v, err := NewValidator(context.Background(), ValidatorOptions{
		Endpoint:             srv.URL + "/",
		HTTPClient:           srv.Client(),
		RetryInitialInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return v
}

func TestCheckCredentialShape(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		wantErr    bool
	}{
		{name: "access token", credential: "ya29.a0AfH6SMB"},
		{name: "empty", credential: "", wantErr: true},
		{name: "blank", credential: "   ", wantErr: true},
		{name: "refresh token", credential: "1//0gLxyz", wantErr: true},
		{name: "embedded space", credential: "ya29.abc def", wantErr: true},
		{name: "trailing newline", credential: "ya29.abc\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCredentialShape(tt.credential)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var aerr *AuthError
			assert.ErrorAs(t, err, &aerr)
		})
	}
}

func TestValidator_ValidateCredential(t *testing.T) {
	tests := []struct {
		name        string
		credential  string
		status      int
		scope       string
		wantAuthErr bool
		wantNetErr  bool
		wantCalls   int32
	}{
		{
			name:       "calendar scope present",
			credential: "ya29.good",
			status:     http.StatusOK,
			scope:      "openid https://www.googleapis.com/auth/calendar https://www.googleapis.com/auth/userinfo.email",
			wantCalls:  1,
		},
		{
			name:        "read-only calendar scope is not enough",
			credential:  "ya29.readonly",
			status:      http.StatusOK,
			scope:       "https://www.googleapis.com/auth/calendar.readonly",
			wantAuthErr: true,
			wantCalls:   1,
		},
		{
			name:        "expired token",
			credential:  "ya29.expired",
			status:      http.StatusBadRequest,
			wantAuthErr: true,
			wantCalls:   1,
		},
		{
			name:        "malformed token never reaches the network",
			credential:  "not-a-token",
			wantAuthErr: true,
			wantCalls:   0,
		},
		{
			name:       "introspection outage",
			credential: "ya29.good",
			status:     http.StatusServiceUnavailable,
			wantNetErr: true,
			wantCalls:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			v := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				assert.Equal(t, "/oauth2/v2/tokeninfo", r.URL.Path)
				assert.Equal(t, tt.credential, r.FormValue("access_token"))

				if tt.status != http.StatusOK {
					writeJSON(t, w, tt.status, map[string]any{"error": "invalid_token", "error_description": "Invalid Value"})
					return
				}
				writeJSON(t, w, http.StatusOK, map[string]any{
					"issued_to":  "client.apps.googleusercontent.com",
					"scope":      tt.scope,
					"expires_in": 3599,
				})
			})

			err := v.ValidateCredential(context.Background(), tt.credential)
			assert.Equal(t, tt.wantCalls, calls.Load())

			switch {
			case tt.wantAuthErr:
				var aerr *AuthError
				assert.ErrorAs(t, err, &aerr)
			case tt.wantNetErr:
				var aerr *AuthError
				require.Error(t, err)
				assert.NotErrorAs(t, err, &aerr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestHasScope(t *testing.T) {
	assert.True(t, hasScope("a "+CalendarScope+" b", CalendarScope))
	assert.False(t, hasScope(CalendarScope+".readonly", CalendarScope))
	assert.False(t, hasScope("", CalendarScope))
}
