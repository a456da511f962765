package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

const dateLayout = "2006-01-02"

// Event is the subset of a Google Calendar event the planner works with.
type Event struct {
	ID       string
	Summary  string
	Status   string
	HTMLLink string

	// Start and End keep the offset the provider returned. For all-day
	// events they are midnight UTC of the date.
	Start time.Time
	End   time.Time

	// RawStart is the provider's start value as sent, dateTime or date.
	RawStart string

	AllDay     bool
	Recurrence []string
}

// Cancelled reports whether the provider marked the event as cancelled.
func (e Event) Cancelled() bool {
	return e.Status == "cancelled"
}

// EventInput describes an event to create. Start and End must be
// offset-qualified RFC 3339 timestamps.
type EventInput struct {
	Summary    string
	Start      string
	End        string
	TimeZone   string
	Recurrence []string
}

// EventPatch lists the fields to change on an existing event. Nil fields are
// left untouched.
type EventPatch struct {
	Summary  *string
	Start    *string
	End      *string
	TimeZone string
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Summary == nil && p.Start == nil && p.End == nil
}

func (in EventInput) toAPI() *calendar.Event {
	ev := &calendar.Event{
		Summary: in.Summary,
		Start:   &calendar.EventDateTime{DateTime: in.Start, TimeZone: in.TimeZone},
		End:     &calendar.EventDateTime{DateTime: in.End, TimeZone: in.TimeZone},
	}
	if len(in.Recurrence) > 0 {
		ev.Recurrence = in.Recurrence
	}
	return ev
}

func (p EventPatch) toAPI() *calendar.Event {
	ev := &calendar.Event{}
	if p.Summary != nil {
		ev.Summary = *p.Summary
	}
	if p.Start != nil {
		ev.Start = &calendar.EventDateTime{DateTime: *p.Start, TimeZone: p.TimeZone}
	}
	if p.End != nil {
		ev.End = &calendar.EventDateTime{DateTime: *p.End, TimeZone: p.TimeZone}
	}
	return ev
}

func toEvent(ev *calendar.Event) Event {
	if ev == nil {
		return Event{}
	}

	out := Event{
		ID:         ev.Id,
		Summary:    ev.Summary,
		Status:     ev.Status,
		HTMLLink:   ev.HtmlLink,
		Recurrence: ev.Recurrence,
	}

	if ev.Start != nil {
		out.Start, out.AllDay = parseEventTime(ev.Start)
		out.RawStart = ev.Start.DateTime
		if out.RawStart == "" {
			out.RawStart = ev.Start.Date
		}
	}
	if ev.End != nil {
		out.End, _ = parseEventTime(ev.End)
	}

	return out
}

func parseEventTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t, false
	}
	if dt.Date != "" {
		t, err := time.Parse(dateLayout, dt.Date)
		if err != nil {
			return time.Time{}, true
		}
		return t, true
	}
	return time.Time{}, false
}
