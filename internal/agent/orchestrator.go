package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/planner/internal/command"
	"github.com/teemow/planner/internal/guardrail"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/llm"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/tools"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultMaxTurns   = 8
	DefaultRunTimeout = 2 * time.Minute
)

// Run outcomes recorded in metrics besides the Status values.
const (
	runStatusAuthError  = "auth_error"
	runStatusModelError = "model_error"
)

// CredentialValidator checks a caller credential before any tool runs.
// *calendar.Validator satisfies it.
type CredentialValidator interface {
	ValidateCredential(ctx context.Context, credential string) error
}

// Dispatcher executes one tool command. *tools.Executor satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req tools.Request) tools.Result
}

// IntentGuard screens the latest user message. *guardrail.Guard satisfies it.
type IntentGuard interface {
	Check(ctx context.Context, text string) guardrail.Verdict
}

// Config configures an Orchestrator.
type Config struct {
	Model     llm.Model
	Prompt    llm.Prompt
	Tools     Dispatcher
	Validator CredentialValidator

	// Guard is optional.
	Guard IntentGuard

	// MaxTurns bounds the number of model calls in one run.
	MaxTurns int

	// RunTimeout is the wall-clock budget of one run.
	RunTimeout time.Duration

	// DefaultLocation is used for sessions without a valid zone.
	DefaultLocation *time.Location

	Clock   func() time.Time
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Orchestrator drives planning runs. Its configuration is fixed at
// construction, so it is safe for concurrent Run calls.
type Orchestrator struct {
	model      llm.Model
	prompt     llm.Prompt
	tools      Dispatcher
	validator  CredentialValidator
	guard      IntentGuard
	maxTurns   int
	runTimeout time.Duration
	location   *time.Location
	clock      func() time.Time
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// New validates cfg and returns an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Model == nil:
		return nil, errors.New("model is required")
	case cfg.Tools == nil:
		return nil, errors.New("tool dispatcher is required")
	case cfg.Validator == nil:
		return nil, errors.New("credential validator is required")
	case cfg.MaxTurns < 0:
		return nil, fmt.Errorf("max turns must not be negative, got %d", cfg.MaxTurns)
	}

	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
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

	return &Orchestrator{
		model:      cfg.Model,
		prompt:     cfg.Prompt,
		tools:      cfg.Tools,
		validator:  cfg.Validator,
		guard:      cfg.Guard,
		maxTurns:   cfg.MaxTurns,
		runTimeout: cfg.RunTimeout,
		location:   cfg.DefaultLocation,
		clock:      cfg.Clock,
		metrics:    cfg.Metrics,
		logger:     logging.WithOperation(cfg.Logger, "agent"),
	}, nil
}

// Run processes one user request. history is the conversation so far,
// ending with the user's latest message; it is copied, not modified.
//
// Run returns an error only when the run cannot proceed at all: the
// credential is rejected (a *calendar.AuthError is wrapped), credential
// validation is unavailable, or the model cannot be reached. Tool failures
// are fed back to the model and never end the run.
func (o *Orchestrator) Run(ctx context.Context, history []session.Message, sc *session.Context) (*Result, error) {
	if sc == nil {
		return nil, errors.New("session context is required")
	}

	r := &run{
		o:       o,
		id:      uuid.NewString(),
		session: sc,
		history: session.NewHistory(history),
		loc:     sc.Location(o.location),
	}
	r.logger = logging.WithRun(o.logger, r.id)

	ctx, span := instrumentation.StartRunSpan(ctx, r.id)
	defer span.End()

	o.metrics.IncrementActiveRuns(ctx)
	defer o.metrics.DecrementActiveRuns(ctx)

	res, status, err := r.execute(ctx)
	o.metrics.RecordRun(ctx, status, r.turns)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		r.logger.Warn("run failed", logging.Status(status), logging.Turn(r.turns), logging.Err(err))
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	r.logger.Info("run finished", logging.Status(status), logging.Turn(r.turns))
	return res, nil
}

// run is the per-call state of Run.
type run struct {
	o       *Orchestrator
	id      string
	session *session.Context
	history *session.History
	loc     *time.Location
	turns   int
	logger  *slog.Logger
}

func (r *run) execute(ctx context.Context) (*Result, string, error) {
	o := r.o

	if err := o.validator.ValidateCredential(ctx, r.session.Credential); err != nil {
		return nil, runStatusAuthError, fmt.Errorf("credential check failed: %w", err)
	}

	if o.guard != nil {
		if last, ok := r.history.LastOfRole(session.RoleUser); ok {
			if verdict := o.guard.Check(ctx, last.Content); !verdict.Allowed {
				return r.finish(StatusRejected, guardrail.RefusalText), string(StatusRejected), nil
			}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	for r.turns < o.maxTurns {
		if runCtx.Err() != nil {
			break
		}
		r.turns++

		system := o.prompt.Render(o.clock().In(r.loc))
		reply, err := o.model.Generate(runCtx, system, r.history.Messages())
		if err != nil {
			if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				r.logger.Warn("run budget exhausted during model call", logging.Turn(r.turns))
				break
			}
			return nil, runStatusModelError, fmt.Errorf("model call on turn %d: %w", r.turns, err)
		}
		r.history.Append(session.AssistantMessage(reply))

		cmd, err := command.Parse(reply)
		switch {
		case err != nil:
			r.logger.Info("model emitted malformed tool command", logging.Turn(r.turns), logging.Err(err))
			r.history.Append(session.ToolResultMessage(InvalidJSONText))
		case cmd == nil:
			return r.result(StatusCompleted, reply), string(StatusCompleted), nil
		default:
			r.dispatch(runCtx, *cmd)
		}
	}

	r.logger.Warn("run stopped without a final answer", logging.Turn(r.turns), slog.Int("max_turns", o.maxTurns))
	return r.finish(StatusTurnBoundExceeded, UnableToCompleteText), string(StatusTurnBoundExceeded), nil
}

func (r *run) dispatch(ctx context.Context, cmd command.Command) {
	res := r.o.tools.Dispatch(ctx, tools.Request{
		Command: cmd,
		Session: r.session,
		RunID:   r.id,
		Turn:    r.turns,
	})
	r.history.Append(session.ToolResultMessage(ToolOutputPrefix + res.Text))

	if res.Failed() {
		r.session.SetPending(string(cmd.Name), cmd.Args)
	} else {
		r.session.ClearPending()
	}
}

// finish appends answer as the final assistant message and builds the result.
func (r *run) finish(status Status, answer string) *Result {
	r.history.Append(session.AssistantMessage(answer))
	return r.result(status, answer)
}

func (r *run) result(status Status, answer string) *Result {
	return &Result{
		RunID:   r.id,
		Answer:  answer,
		Status:  status,
		Turns:   r.turns,
		History: r.history.Messages(),
	}
}
