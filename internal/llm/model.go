package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/teemow/planner/internal/session"
)

// Model produces the next assistant reply for a conversation.
type Model interface {
	Generate(ctx context.Context, system string, history []session.Message) (string, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, system string, history []session.Message) (string, error)

// Generate calls f.
func (f ModelFunc) Generate(ctx context.Context, system string, history []session.Message) (string, error) {
	return f(ctx, system, history)
}

// ErrEmptyResponse is returned when the provider answers without a choice.
var ErrEmptyResponse = errors.New("model returned no choices")

// APIError is a non-2xx answer from the chat-completions endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = http.StatusText(e.Status)
	}
	return fmt.Sprintf("model endpoint returned status %d: %s", e.Status, body)
}

// Retryable reports whether the call may succeed when repeated.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}
