package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/command"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
)

// nopService fails every call; executor tests only need its identity.
type nopService struct{}

func (nopService) ListEvents(ctx context.Context, timeMin, timeMax string) ([]calendar.Event, error) {
	return nil, errors.New("not implemented")
}

func (nopService) CreateEvent(ctx context.Context, in calendar.EventInput) (*calendar.Event, error) {
	return nil, errors.New("not implemented")
}

func (nopService) PatchEvent(ctx context.Context, eventID string, patch calendar.EventPatch) (*calendar.Event, error) {
	return nil, errors.New("not implemented")
}

func (nopService) DeleteEvent(ctx context.Context, eventID string) error {
	return errors.New("not implemented")
}

func newExecutor(t *testing.T, handlers map[command.Name]Handler, services ServiceFactory) *Executor {
	t.Helper()

	all := completeHandlers()
	for name, h := range handlers {
		all[name] = h
	}
	registry, err := NewRegistry(all)
	require.NoError(t, err)

	if services == nil {
		services = func(ctx context.Context, credential string) (Service, error) {
			return nopService{}, nil
		}
	}

	exec, err := NewExecutor(ExecutorConfig{
		Registry: registry,
		Services: services,
		Clock:    func() time.Time { return time.Date(2026, 1, 19, 4, 30, 0, 0, time.UTC) },
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)
	return exec
}

func TestNewExecutor_Validation(t *testing.T) {
	_, err := NewExecutor(ExecutorConfig{})
	assert.Error(t, err)

	registry, err := NewRegistry(completeHandlers())
	require.NoError(t, err)
	_, err = NewExecutor(ExecutorConfig{Registry: registry})
	assert.Error(t, err)
}

func TestExecutor_UnknownTool(t *testing.T) {
	exec := newExecutor(t, nil, nil)

	res := exec.Dispatch(context.Background(), Request{
		Command: command.Command{Name: "book_flight"},
		Session: session.New("ya29.x", "UTC"),
	})
	assert.Equal(t, "Unknown tool: book_flight", res.Text)
	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, ErrUnknownTool)
}

func TestExecutor_CallContext(t *testing.T) {
	var got *Call
	exec := newExecutor(t, map[command.Name]Handler{
		command.ListEvents: func(ctx context.Context, call *Call) (string, error) {
			got = call
			return "listed", nil
		},
	}, nil)

	res := exec.Dispatch(context.Background(), Request{
		Command: command.Command{Name: command.ListEvents, Args: map[string]any{"days": 3}},
		Session: session.New("ya29.x", "Asia/Kolkata"),
		RunID:   "run-7",
		Turn:    2,
	})
	require.False(t, res.Failed())
	assert.Equal(t, "listed", res.Text)

	require.NotNil(t, got)
	assert.Equal(t, command.ListEvents, got.Tool)
	assert.Equal(t, 3, got.Args["days"])
	assert.Equal(t, "Asia/Kolkata", got.Location().String())
	assert.Equal(t, "2026-01-19T10:00:00+05:30", got.Now.Format(time.RFC3339))
	assert.Equal(t, "run-7", got.RunID)
	assert.Equal(t, 2, got.Turn)
	assert.Equal(t, nopService{}, got.Service)
}

func TestExecutor_InvalidZoneFallsBack(t *testing.T) {
	var loc *time.Location
	exec := newExecutor(t, map[command.Name]Handler{
		command.ListEvents: func(ctx context.Context, call *Call) (string, error) {
			loc = call.Location()
			return "", nil
		},
	}, nil)

	exec.Execute(context.Background(), session.New("ya29.x", "Mars/Olympus"), command.Command{Name: command.ListEvents})
	assert.Equal(t, time.UTC, loc)
}

func TestExecutor_NilArgsAndSession(t *testing.T) {
	exec := newExecutor(t, map[command.Name]Handler{
		command.DeleteEvent: func(ctx context.Context, call *Call) (string, error) {
			require.NotNil(t, call.Args)
			require.NotNil(t, call.Session)
			return "ok", nil
		},
	}, nil)

	text := exec.Execute(context.Background(), nil, command.Command{Name: command.DeleteEvent})
	assert.Equal(t, "ok", text)
}

func TestExecutor_ErrorRendering(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing argument gets tool name",
			err:  MissingArgument("event_id"),
			want: `Error: missing required argument "event_id" for delete_event.`,
		},
		{
			name: "invalid argument",
			err:  InvalidArgument("event_id", "must not contain spaces"),
			want: `Error: invalid argument "event_id" for delete_event: must not contain spaces.`,
		},
		{
			name: "not found",
			err:  &calendar.ProviderError{Op: "delete", Status: http.StatusNotFound, Message: "Not Found"},
			want: NotFoundText,
		},
		{
			name: "wrapped not found",
			err:  fmt.Errorf("deleting: %w", &calendar.ProviderError{Op: "delete", Status: http.StatusGone}),
			want: NotFoundText,
		},
		{
			name: "provider error",
			err:  &calendar.ProviderError{Op: "delete", Status: http.StatusForbidden, Message: "Forbidden"},
			want: "Error: calendar delete failed with status 403: Forbidden",
		},
		{
			name: "guidance",
			err:  &GuidanceError{Text: "Error: Google rejected dates. Tried: a to b", Err: errors.New("400")},
			want: "Error: Google rejected dates. Tried: a to b",
		},
		{
			name: "plain",
			err:  errors.New("boom"),
			want: "Error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newExecutor(t, map[command.Name]Handler{
				command.DeleteEvent: func(ctx context.Context, call *Call) (string, error) {
					return "", tt.err
				},
			}, nil)

			res := exec.Dispatch(context.Background(), Request{Command: command.Command{Name: command.DeleteEvent}})
			assert.True(t, res.Failed())
			assert.Equal(t, tt.want, res.Text)
		})
	}
}

func TestExecutor_ServiceFactoryError(t *testing.T) {
	called := false
	exec := newExecutor(t, map[command.Name]Handler{
		command.ListEvents: func(ctx context.Context, call *Call) (string, error) {
			called = true
			return "", nil
		},
	}, func(ctx context.Context, credential string) (Service, error) {
		return nil, errors.New("no transport")
	})

	res := exec.Dispatch(context.Background(), Request{Command: command.Command{Name: command.ListEvents}})
	assert.False(t, called)
	assert.True(t, res.Failed())
	assert.Equal(t, "Error: failed to create calendar client: no transport", res.Text)
}

func TestRenderError_Compound(t *testing.T) {
	err := &CompoundOperationError{
		State:      DeletedNotRecreated,
		OldEventID: "old1",
		Err:        &calendar.ProviderError{Op: "create", Status: 500, Message: "boom"},
	}
	text := RenderError(err)
	assert.Contains(t, text, "Error: reschedule incomplete")
	assert.Contains(t, text, "old1 was deleted")
	assert.Contains(t, text, "add_event")

	var perr *calendar.ProviderError
	assert.ErrorAs(t, err, &perr)

	created := &CompoundOperationError{State: CreatedNotDeleted, OldEventID: "old1", NewEventID: "new1", Err: errors.New("timeout")}
	assert.Contains(t, RenderError(created), "Both events exist now")

	missing := &CompoundOperationError{State: CreatedOriginalMissing, OldEventID: "old1", NewEventID: "new1", Err: errors.New("gone")}
	text = RenderError(missing)
	assert.Contains(t, text, "new event new1 was created")
	assert.Contains(t, text, "old1 was not found")
	assert.NotContains(t, text, "Delete the original")
}

func TestRenderError_Network(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "timeout",
			err:  &calendar.NetworkError{Op: "create", Err: context.DeadlineExceeded},
			want: "did not answer in time during create",
		},
		{
			name: "unreachable",
			err:  &calendar.NetworkError{Op: "delete", Err: errors.New("connection refused")},
			want: "could not reach Google Calendar during delete",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := RenderError(tt.err)
			assert.Contains(t, text, tt.want)
			assert.Contains(t, text, "may or may not have been applied")
		})
	}
}
