package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
)

// Defaults applied by NewChatClient for zero Options fields.
const (
	DefaultEndpoint    = "https://router.huggingface.co/v1/chat/completions"
	DefaultModel       = "Qwen/Qwen2.5-Coder-32B-Instruct"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 512
	DefaultTimeout     = 60 * time.Second
	DefaultAttempts    = 2
)

const maxResponseBytes = 1 << 20

// Options configures a ChatClient.
type Options struct {
	Endpoint string
	APIKey   string
	Model    string

	// Temperature defaults to DefaultTemperature when zero.
	Temperature float64

	MaxTokens int

	// Timeout bounds each attempt.
	Timeout time.Duration

	// Attempts is the total number of tries on 429, 5xx and network errors.
	Attempts             uint
	RetryInitialInterval time.Duration

	HTTPClient *http.Client
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Attempts == 0 {
		o.Attempts = DefaultAttempts
	}
	if o.RetryInitialInterval <= 0 {
		o.RetryInitialInterval = 500 * time.Millisecond
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ChatClient calls an OpenAI-compatible chat-completions endpoint.
// It holds no per-call state and is safe for concurrent use.
type ChatClient struct {
	opts   Options
	logger *slog.Logger
}

// NewChatClient returns a ChatClient. An API key is required.
func NewChatClient(opts Options) (*ChatClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("model API key is required")
	}
	opts = opts.withDefaults()

	return &ChatClient{
		opts:   opts,
		logger: logging.WithOperation(opts.Logger, "llm"),
	}, nil
}

// Model returns the configured model id.
func (c *ChatClient) Model() string {
	return c.opts.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the system prompt and history and returns the reply text.
func (c *ChatClient) Generate(ctx context.Context, system string, history []session.Message) (string, error) {
	ctx, span := instrumentation.StartModelSpan(ctx, c.opts.Model)
	defer span.End()

	body, err := json.Marshal(chatRequest{
		Model:       c.opts.Model,
		Messages:    toChatMessages(system, history),
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	start := time.Now()
	reply, err := backoff.Retry(ctx, func() (string, error) {
		reply, err := c.complete(ctx, body)
		switch {
		case err == nil:
			return reply, nil
		case retryable(err):
			c.logger.Debug("retrying model call", logging.Err(err))
			return "", err
		default:
			return "", backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.opts.Attempts),
	)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.opts.Metrics.RecordModelCall(ctx, status, duration)

	c.logger.Debug("model call finished",
		logging.Status(status),
		slog.Duration(logging.KeyDuration, duration),
		slog.Int("reply_chars", len(reply)),
		logging.Err(err),
	)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	return reply, nil
}

func (c *ChatClient) complete(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return "", &transportError{err: fmt.Errorf("send chat request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &transportError{err: fmt.Errorf("read chat response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &APIError{Status: resp.StatusCode, Body: logging.Truncate(string(raw), 512)}
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}

func (c *ChatClient) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryInitialInterval
	b.MaxInterval = 8 * c.opts.RetryInitialInterval
	return b
}

// transportError marks failures to reach the endpoint at all.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var te *transportError
	return errors.As(err, &te)
}

func toChatMessages(system string, history []session.Message) []chatMessage {
	out := make([]chatMessage, 0, len(history)+1)
	if system != "" {
		out = append(out, chatMessage{Role: "system", Content: system})
	}
	for _, m := range history {
		role := string(m.Role)
		if m.Role == session.RoleToolResult {
			role = string(session.RoleUser)
		}
		out = append(out, chatMessage{Role: role, Content: m.Content})
	}
	return out
}
