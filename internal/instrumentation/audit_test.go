package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCredential = "ya29.a0AfH6SMBexample"
	testToolDelete = "delete_event"
	testEventID    = "evt_123"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestToolInvocation_Lifecycle(t *testing.T) {
	ti := NewToolInvocation(testToolDelete).
		WithCaller(testCredential, "Asia/Kolkata").
		WithRun("run-1", 3).
		WithResource(testEventID)

	assert.False(t, ti.StartTime.IsZero())
	assert.Equal(t, CredentialFingerprint(testCredential), ti.CredentialID)
	assert.Equal(t, "Asia", ti.Region())

	ti.CompleteWithError(errors.New("provider error 500"))
	assert.False(t, ti.Success)
	assert.Equal(t, StatusError, ti.Status())
	assert.Equal(t, "provider error 500", ti.Error)
	assert.GreaterOrEqual(t, ti.Duration.Nanoseconds(), int64(0))

	ok := NewToolInvocation("list_events").CompleteSuccess()
	assert.True(t, ok.Success)
	assert.Equal(t, StatusSuccess, ok.Status())
	assert.Empty(t, ok.Error)
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	tests := []struct {
		name           string
		config         AuditLoggingConfig
		success        bool
		wantLines      int
		wantMsg        string
		wantLevel      string
		wantResourceID bool
	}{
		{
			name:      "success without resource ids",
			config:    AuditLoggingConfig{Enabled: true},
			success:   true,
			wantLines: 1,
			wantMsg:   "tool_executed",
			wantLevel: "INFO",
		},
		{
			name:      "failure is logged at warn",
			config:    AuditLoggingConfig{Enabled: true},
			success:   false,
			wantLines: 1,
			wantMsg:   "tool_failed",
			wantLevel: "WARN",
		},
		{
			name:           "resource ids when enabled",
			config:         AuditLoggingConfig{Enabled: true, IncludeResourceIDs: true},
			success:        true,
			wantLines:      1,
			wantMsg:        "tool_executed",
			wantLevel:      "INFO",
			wantResourceID: true,
		},
		{
			name:      "disabled logger writes nothing",
			config:    AuditLoggingConfig{Enabled: false},
			success:   true,
			wantLines: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			al := NewAuditLoggerWithConfig(logger, tt.config)

			ti := NewToolInvocation(testToolDelete).
				WithCaller(testCredential, "Europe/Berlin").
				WithRun("run-9", 1).
				WithResource(testEventID)
			if tt.success {
				ti.CompleteSuccess()
			} else {
				ti.CompleteWithError(errors.New("not found"))
			}

			al.LogToolInvocation(ti)

			lines := decodeLines(t, &buf)
			require.Len(t, lines, tt.wantLines)
			if tt.wantLines == 0 {
				return
			}

			line := lines[0]
			assert.Equal(t, tt.wantMsg, line["msg"])
			assert.Equal(t, tt.wantLevel, line["level"])
			assert.Equal(t, testToolDelete, line["tool"])
			assert.Equal(t, "run-9", line["run_id"])
			assert.Equal(t, "Europe", line["region"])
			assert.NotContains(t, buf.String(), testCredential)

			_, hasResource := line["resource_id"]
			assert.Equal(t, tt.wantResourceID, hasResource)
		})
	}
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var al *AuditLogger
	al.LogToolInvocation(NewToolInvocation("list_events").CompleteSuccess())
}

func TestAuditLogger_WithLogger(t *testing.T) {
	var first, second bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&first, nil)))
	scoped := al.WithLogger(slog.New(slog.NewJSONHandler(&second, nil)))

	scoped.LogToolInvocation(NewToolInvocation("list_events").CompleteSuccess())

	assert.Empty(t, first.String())
	assert.Contains(t, second.String(), "tool_executed")
}
