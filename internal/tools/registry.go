package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/command"
	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/timestamp"
)

// Service is the calendar surface the handlers use. *calendar.Client
// satisfies it.
type Service interface {
	ListEvents(ctx context.Context, timeMin, timeMax string) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, in calendar.EventInput) (*calendar.Event, error)
	PatchEvent(ctx context.Context, eventID string, patch calendar.EventPatch) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// ServiceFactory builds a Service bound to one caller credential.
type ServiceFactory func(ctx context.Context, credential string) (Service, error)

// Call is the input of one handler invocation.
type Call struct {
	Tool    command.Name
	Args    map[string]any
	Session *session.Context
	Service Service

	// Timestamps normalizes model-supplied times in the caller's zone.
	Timestamps timestamp.Normalizer
	Now        time.Time

	RunID string
	Turn  int
}

// Location returns the zone the call's timestamps are interpreted in.
func (c *Call) Location() *time.Location {
	if c.Timestamps.Location != nil {
		return c.Timestamps.Location
	}
	return time.UTC
}

// Handler executes one tool. The returned text is shown to the model on
// success; errors are rendered with RenderError.
type Handler func(ctx context.Context, call *Call) (string, error)

// Registry maps tool names to handlers.
type Registry struct {
	handlers map[command.Name]Handler
}

// NewRegistry builds a registry and fails when any supported tool lacks a
// handler or a handler is registered for an unsupported name.
func NewRegistry(handlers map[command.Name]Handler) (*Registry, error) {
	var missing, unknown []string

	for _, name := range command.AllNames() {
		if handlers[name] == nil {
			missing = append(missing, string(name))
		}
	}
	for name := range handlers {
		if !name.Known() {
			unknown = append(unknown, string(name))
		}
	}
	sort.Strings(unknown)

	switch {
	case len(missing) > 0:
		return nil, fmt.Errorf("tool registry incomplete, no handler for: %s", strings.Join(missing, ", "))
	case len(unknown) > 0:
		return nil, fmt.Errorf("tool registry has handlers for unsupported tools: %s", strings.Join(unknown, ", "))
	}

	r := &Registry{handlers: make(map[command.Name]Handler, len(handlers))}
	for name, h := range handlers {
		r.handlers[name] = h
	}
	return r, nil
}

// Lookup returns the handler for name.
func (r *Registry) Lookup(name command.Name) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Wrap returns a registry whose handlers are all passed through mw.
func (r *Registry) Wrap(mw func(command.Name, Handler) Handler) *Registry {
	out := &Registry{handlers: make(map[command.Name]Handler, len(r.handlers))}
	for name, h := range r.handlers {
		out.handlers[name] = mw(name, h)
	}
	return out
}
