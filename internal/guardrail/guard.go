// Package guardrail screens user messages before they reach the planning
// loop, asking the model whether the text is about calendars or scheduling.
package guardrail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/planner/internal/llm"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
)

// Policy decides what happens when the classifier itself fails.
type Policy string

const (
	// FailOpen lets the message through when classification fails.
	FailOpen Policy = "fail-open"

	// FailClosed rejects the message when classification fails.
	FailClosed Policy = "fail-closed"
)

// ParsePolicy parses a configured policy. There is no default.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case FailOpen, FailClosed:
		return p, nil
	default:
		return "", fmt.Errorf("invalid guardrail policy %q (valid: %s, %s)", s, FailOpen, FailClosed)
	}
}

// RefusalText is the answer given for rejected messages.
const RefusalText = "I can only help with your calendar: scheduling, listing, moving or deleting events. Please ask me something about your schedule."

const classifierPrompt = `Decide whether the user's text is related to calendars, scheduling, meetings, events, dates or time.
Reply only YES or NO.`

// Verdict is the outcome of a check.
type Verdict struct {
	Allowed bool

	// Err is the classifier failure the policy was applied to, if any.
	Err error
}

// Guard classifies user messages. It is safe for concurrent use.
type Guard struct {
	model  llm.Model
	policy Policy
	logger *slog.Logger
}

// New returns a Guard. Both model and a valid policy are required.
func New(model llm.Model, policy Policy, logger *slog.Logger) (*Guard, error) {
	if model == nil {
		return nil, errors.New("guardrail model is required")
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{model: model, policy: policy, logger: logging.WithOperation(logger, "guardrail")}, nil
}

// Policy returns the configured failure policy.
func (g *Guard) Policy() Policy {
	return g.policy
}

// Check classifies text. Empty text is allowed; the planning loop asks
// for details itself.
func (g *Guard) Check(ctx context.Context, text string) Verdict {
	if strings.TrimSpace(text) == "" {
		return Verdict{Allowed: true}
	}

	reply, err := g.model.Generate(ctx, classifierPrompt, []session.Message{
		session.UserMessage(fmt.Sprintf("Text: %q", text)),
	})
	if err != nil {
		allowed := g.policy == FailOpen
		g.logger.Warn("intent classification failed",
			slog.String("policy", string(g.policy)),
			slog.Bool("allowed", allowed),
			logging.Err(err),
		)
		return Verdict{Allowed: allowed, Err: err}
	}

	allowed := strings.Contains(strings.ToUpper(reply), "YES")
	g.logger.Debug("intent classified", slog.Bool("allowed", allowed))
	return Verdict{Allowed: allowed}
}
