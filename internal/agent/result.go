package agent

import (
	"errors"

	"github.com/teemow/planner/internal/session"
)

// Status is how a run ended.
type Status string

const (
	StatusCompleted         Status = "completed"
	StatusTurnBoundExceeded Status = "turn_bound_exceeded"
	StatusRejected          Status = "rejected"
)

// ErrTurnBoundExceeded is reported by Result.Err for runs stopped by the
// turn bound or the time budget.
var ErrTurnBoundExceeded = errors.New("run stopped before the model produced a final answer")

// Texts the loop writes into the conversation.
const (
	ToolOutputPrefix     = "Calendar Tool Output: "
	InvalidJSONText      = "Error: The AI generated invalid JSON. Please try again."
	UnableToCompleteText = "I'm sorry, I was unable to complete your request within the allowed number of steps. " +
		"Some changes may already have been made; please check your calendar or ask me to list your events."
)

// Result is the outcome of a run.
type Result struct {
	RunID  string
	Answer string
	Status Status

	// Turns is the number of model calls made.
	Turns int

	// History is the full conversation including every message the run
	// appended.
	History []session.Message
}

// Err returns ErrTurnBoundExceeded for runs that did not complete, nil
// otherwise.
func (r *Result) Err() error {
	if r.Status == StatusTurnBoundExceeded {
		return ErrTurnBoundExceeded
	}
	return nil
}
