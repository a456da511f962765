package calendar_tools

import (
	"fmt"
	"strings"

	"github.com/teemow/planner/internal/command"
)

// Arg describes one tool argument.
type Arg struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// Definition describes a tool to the model and to MCP clients.
type Definition struct {
	Name        command.Name
	Description string
	Args        []Arg
}

var definitions = []Definition{
	{
		Name:        command.ListEvents,
		Description: "List upcoming events with their ids, starting now.",
		Args: []Arg{
			{Name: "days", Type: "int", Description: "Number of days to look ahead (default 7, max 365)"},
		},
	},
	{
		Name:        command.AddEvent,
		Description: "Create a new event.",
		Args: []Arg{
			{Name: "summary", Type: "string", Required: true, Description: "Event title"},
			{Name: "start_iso", Type: "string", Required: true, Description: "Start as ISO 8601, e.g. 2026-01-20T18:00:00+05:30"},
			{Name: "end_iso", Type: "string", Required: true, Description: "End as ISO 8601"},
			{Name: "recurrence", Type: "string", Description: "RFC 5545 rule, e.g. RRULE:FREQ=WEEKLY;BYDAY=MO"},
		},
	},
	{
		Name:        command.UpdateEvent,
		Description: "Change the title or time of an existing event. Only the given fields change.",
		Args: []Arg{
			{Name: "event_id", Type: "string", Required: true, Description: "Id from list_events"},
			{Name: "summary", Type: "string", Description: "New title"},
			{Name: "start_iso", Type: "string", Description: "New start as ISO 8601"},
			{Name: "end_iso", Type: "string", Description: "New end as ISO 8601"},
		},
	},
	{
		Name:        command.DeleteEvent,
		Description: "Delete one event by id.",
		Args: []Arg{
			{Name: "event_id", Type: "string", Required: true, Description: "Id from list_events"},
		},
	},
	{
		Name:        command.RescheduleEvent,
		Description: "Move an event by replacing it with a new one. The new event gets a new id.",
		Args: []Arg{
			{Name: "old_event_id", Type: "string", Required: true, Description: "Id of the event to replace"},
			{Name: "new_summary", Type: "string", Required: true, Description: "Title of the new event"},
			{Name: "new_start_iso", Type: "string", Required: true, Description: "New start as ISO 8601"},
			{Name: "new_end_iso", Type: "string", Required: true, Description: "New end as ISO 8601"},
		},
	},
	{
		Name:        command.DeleteEventsInRange,
		Description: "Delete every event starting in [start_date, end_date).",
		Args: []Arg{
			{Name: "start_date", Type: "string", Required: true, Description: "Range start as ISO 8601 date or date-time"},
			{Name: "end_date", Type: "string", Required: true, Description: "Range end (exclusive) as ISO 8601 date or date-time"},
		},
	},
}

// Definitions returns the tool definitions in a stable order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Contract renders the JSON shape of every tool, one per line, for the
// model's system prompt.
//
//	{"tool": "delete_event", "args": {"event_id": <string>}}
func Contract() string {
	var b strings.Builder
	for i, def := range definitions {
		if i > 0 {
			b.WriteByte('\n')
		}
		parts := make([]string, 0, len(def.Args))
		for _, arg := range def.Args {
			kind := arg.Type
			if !arg.Required {
				kind += ", optional"
			}
			parts = append(parts, fmt.Sprintf("%q: <%s>", arg.Name, kind))
		}
		fmt.Fprintf(&b, `{"tool": %q, "args": {%s}}`, def.Name, strings.Join(parts, ", "))
		b.WriteString("  // " + def.Description)
	}
	return b.String()
}
