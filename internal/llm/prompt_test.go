package llm

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompt_Render(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2026, 1, 19, 10, 15, 0, 0, loc)

	p := Prompt{Contract: `{"tool": "list_events", "args": {"days": <int, optional>}}`}
	out := p.Render(now)

	assert.Contains(t, out, "Current Date & Time: 2026-01-19 10:15:00 (Asia/Kolkata, UTC+05:30)")
	assert.Contains(t, out, `{"tool": "list_events"`)
	assert.Contains(t, out, `"2026-01-20T10:00:00+05:30"`)
	assert.Contains(t, out, "Calendar Tool Output:")
}

func TestPrompt_RenderUTC(t *testing.T) {
	out := Prompt{}.Render(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "(UTC, UTC+00:00)")
	assert.Contains(t, out, `"2027-01-01T10:00:00+00:00"`)
}
