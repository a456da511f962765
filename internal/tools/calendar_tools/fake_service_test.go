package calendar_tools

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/command"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/tools"
)

const (
	testCredential = "ya29.calendar-tools-test"
	testZone       = "Asia/Kolkata"
)

type listCall struct {
	timeMin, timeMax string
}

// fakeService records calls and serves a fixed set of events.
type fakeService struct {
	mu sync.Mutex

	events     []calendar.Event
	listErr    error
	createErr  error
	patchErr   error
	deleteErrs map[string]error

	calls   []string
	lists   []listCall
	created []calendar.EventInput
	patches map[string]calendar.EventPatch
	deleted []string
	nextID  int
}

func (f *fakeService) ListEvents(ctx context.Context, timeMin, timeMax string) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "list")
	f.lists = append(f.lists, listCall{timeMin, timeMax})
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]calendar.Event(nil), f.events...), nil
}

func (f *fakeService) CreateEvent(ctx context.Context, in calendar.EventInput) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	f.created = append(f.created, in)
	id := fmt.Sprintf("new-%d", f.nextID)
	return &calendar.Event{ID: id, Summary: in.Summary, HTMLLink: "https://calendar.google.com/event?eid=" + id}, nil
}

func (f *fakeService) PatchEvent(ctx context.Context, eventID string, patch calendar.EventPatch) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "patch "+eventID)
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	if f.patches == nil {
		f.patches = map[string]calendar.EventPatch{}
	}
	f.patches[eventID] = patch
	return &calendar.Event{ID: eventID}, nil
}

func (f *fakeService) DeleteEvent(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "delete "+eventID)
	if err := f.deleteErrs[eventID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}

func providerError(op string, status int) *calendar.ProviderError {
	return &calendar.ProviderError{Op: op, Status: status, Message: http.StatusText(status)}
}

func testNow(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(testZone)
	require.NoError(t, err)
	return time.Date(2026, 1, 19, 10, 0, 0, 0, loc)
}

func newTestExecutor(t *testing.T, svc tools.Service, cfg Config) *tools.Executor {
	t.Helper()

	registry, err := NewRegistry(cfg)
	require.NoError(t, err)

	now := testNow(t)
	exec, err := tools.NewExecutor(tools.ExecutorConfig{
		Registry: registry,
		Services: func(ctx context.Context, credential string) (tools.Service, error) {
			return svc, nil
		},
		Clock:  func() time.Time { return now },
		Logger: logging.Discard(),
	})
	require.NoError(t, err)
	return exec
}

func run(t *testing.T, exec *tools.Executor, name command.Name, args map[string]any) tools.Result {
	t.Helper()
	return exec.Dispatch(context.Background(), tools.Request{
		Command: command.Command{Name: name, Args: args},
		Session: session.New(testCredential, testZone),
	})
}
