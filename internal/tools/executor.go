package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/planner/internal/command"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/timestamp"
)

// Request is one tool dispatch.
type Request struct {
	Command command.Command
	Session *session.Context
	RunID   string
	Turn    int
}

// Result is the outcome of a dispatch. Text is always set.
type Result struct {
	Text string

	// Err is the underlying failure, nil on success. It has already been
	// rendered into Text.
	Err error
}

// Failed reports whether the tool did not complete successfully.
func (r Result) Failed() bool {
	return r.Err != nil
}

// ErrUnknownTool is wrapped into Result.Err for unsupported tool names.
var ErrUnknownTool = errors.New("unknown tool")

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	Registry *Registry
	Services ServiceFactory

	// DefaultLocation is used when the session's zone is empty or invalid.
	DefaultLocation *time.Location

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	Logger *slog.Logger
}

// Executor dispatches tool commands. It holds no per-run state.
type Executor struct {
	registry *Registry
	services ServiceFactory
	location *time.Location
	clock    func() time.Time
	logger   *slog.Logger
}

// NewExecutor validates cfg and returns an Executor.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if cfg.Services == nil {
		return nil, fmt.Errorf("calendar service factory is required")
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Executor{
		registry: cfg.Registry,
		services: cfg.Services,
		location: cfg.DefaultLocation,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}, nil
}

// Execute runs cmd for the given session and returns the text for the model.
func (e *Executor) Execute(ctx context.Context, sc *session.Context, cmd command.Command) string {
	return e.Dispatch(ctx, Request{Command: cmd, Session: sc}).Text
}

// Dispatch runs one tool command. It never returns an error: unknown tools,
// bad arguments and calendar failures are all rendered into Result.Text.
func (e *Executor) Dispatch(ctx context.Context, req Request) Result {
	name := req.Command.Name
	logger := logging.WithTool(e.logger, string(name))
	if req.RunID != "" {
		logger = logging.WithRun(logger, req.RunID)
	}

	handler, ok := e.registry.Lookup(name)
	if !ok {
		logger.Warn("model requested unknown tool")
		return Result{
			Text: fmt.Sprintf(UnknownToolText, name),
			Err:  fmt.Errorf("%w: %s", ErrUnknownTool, name),
		}
	}

	sc := req.Session
	if sc == nil {
		sc = session.New("", "")
	}

	svc, err := e.services(ctx, sc.Credential)
	if err != nil {
		err = fmt.Errorf("failed to create calendar client: %w", err)
		logger.Error("tool setup failed", logging.Err(err))
		return Result{Text: RenderError(err), Err: err}
	}

	loc := sc.Location(e.location)
	args := req.Command.Args
	if args == nil {
		args = map[string]any{}
	}

	call := &Call{
		Tool:       name,
		Args:       args,
		Session:    sc,
		Service:    svc,
		Timestamps: timestamp.New(loc),
		Now:        e.clock().In(loc),
		RunID:      req.RunID,
		Turn:       req.Turn,
	}

	text, err := handler(ctx, call)
	if err != nil {
		var argErr *ArgumentError
		if errors.As(err, &argErr) && argErr.Tool == "" {
			argErr.Tool = name
		}
		logger.Info("tool returned error", logging.Turn(req.Turn), logging.Err(err))
		return Result{Text: RenderError(err), Err: err}
	}

	logger.Debug("tool completed", logging.Turn(req.Turn))
	return Result{Text: text}
}
