package guardrail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/llm"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
)

func replying(reply string, err error) llm.Model {
	return llm.ModelFunc(func(ctx context.Context, system string, history []session.Message) (string, error) {
		return reply, err
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Fail-Open")
	require.NoError(t, err)
	assert.Equal(t, FailOpen, p)

	p, err = ParsePolicy("fail-closed")
	require.NoError(t, err)
	assert.Equal(t, FailClosed, p)

	_, err = ParsePolicy("")
	assert.Error(t, err, "no implicit default")
}

func TestNew(t *testing.T) {
	_, err := New(nil, FailOpen, nil)
	assert.Error(t, err)

	_, err = New(replying("YES", nil), "", nil)
	assert.Error(t, err)

	g, err := New(replying("YES", nil), FailClosed, nil)
	require.NoError(t, err)
	assert.Equal(t, FailClosed, g.Policy())
}

func TestGuard_Check(t *testing.T) {
	outage := errors.New("model unavailable")

	tests := []struct {
		name    string
		reply   string
		err     error
		policy  Policy
		text    string
		allowed bool
	}{
		{name: "yes", reply: "YES", policy: FailClosed, text: "move my dentist appointment", allowed: true},
		{name: "lowercase yes with noise", reply: " yes.", policy: FailClosed, text: "what's on tomorrow", allowed: true},
		{name: "no", reply: "NO", policy: FailOpen, text: "write me a poem", allowed: false},
		{name: "failure fails open", err: outage, policy: FailOpen, text: "book gym", allowed: true},
		{name: "failure fails closed", err: outage, policy: FailClosed, text: "book gym", allowed: false},
		{name: "empty text", reply: "NO", policy: FailClosed, text: "  ", allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(replying(tt.reply, tt.err), tt.policy, logging.Discard())
			require.NoError(t, err)

			v := g.Check(context.Background(), tt.text)
			assert.Equal(t, tt.allowed, v.Allowed)
			if tt.err != nil {
				assert.ErrorIs(t, v.Err, tt.err)
			} else {
				assert.NoError(t, v.Err)
			}
		})
	}
}

func TestGuard_SendsText(t *testing.T) {
	var got []session.Message
	var gotSystem string
	model := llm.ModelFunc(func(ctx context.Context, system string, history []session.Message) (string, error) {
		gotSystem, got = system, history
		return "YES", nil
	})

	g, err := New(model, FailOpen, logging.Discard())
	require.NoError(t, err)
	g.Check(context.Background(), "cancel standup")

	assert.Contains(t, gotSystem, "YES or NO")
	require.Len(t, got, 1)
	assert.Equal(t, session.RoleUser, got[0].Role)
	assert.Equal(t, `Text: "cancel standup"`, got[0].Content)
}
