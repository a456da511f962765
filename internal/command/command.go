// Package command extracts a single structured tool invocation from a
// model's free-text reply.
//
// The wire shape is one JSON object per reply:
//
//	{"tool": "add_event", "args": {"summary": "Gym", "start_iso": "...", "end_iso": "..."}}
//
// Parse distinguishes three outcomes: a command, no command (the reply is a
// plain answer), and a *ParseError for a payload that looks like a command
// but does not decode.
package command

import (
	"fmt"
	"sort"
)

// Name identifies a calendar tool.
type Name string

const (
	ListEvents          Name = "list_events"
	AddEvent            Name = "add_event"
	UpdateEvent         Name = "update_event"
	DeleteEvent         Name = "delete_event"
	RescheduleEvent     Name = "reschedule_event"
	DeleteEventsInRange Name = "delete_events_in_range"
)

var known = map[Name]bool{
	ListEvents:          true,
	AddEvent:            true,
	UpdateEvent:         true,
	DeleteEvent:         true,
	RescheduleEvent:     true,
	DeleteEventsInRange: true,
}

// AllNames returns every supported tool name in lexical order.
func AllNames() []Name {
	names := make([]Name, 0, len(known))
	for n := range known {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Known reports whether n is a supported tool.
func (n Name) Known() bool {
	return known[n]
}

// Command is a parsed tool invocation.
type Command struct {
	Name Name
	Args map[string]any

	// Raw is the exact object text the command was decoded from.
	Raw string
}

// ParseError reports a reply that contains a malformed command payload.
type ParseError struct {
	Fragment string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed tool command: %s", e.Reason)
}
