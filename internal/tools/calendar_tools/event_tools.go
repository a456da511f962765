package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/timestamp"
	"github.com/teemow/planner/internal/tools"
	"github.com/teemow/planner/internal/tools/common"
)

// List window bounds, in days.
const (
	DefaultListDays = 7
	MaxListDays     = 365
)

// Result texts.
const (
	noEventsText     = "No upcoming events found."
	createdText      = "Event created. ID: %s | Link: %s"
	updatedText      = "Event updated successfully."
	deletedText      = "Event deleted successfully."
	untitledSummary  = "Untitled"
	rrulePrefix      = "RRULE:"
	propertySplitter = ":"
)

func handleListEvents(ctx context.Context, call *tools.Call) (string, error) {
	days, err := common.OptionalInt(call.Args, "days", DefaultListDays)
	if err != nil {
		return "", err
	}
	if days < 1 || days > MaxListDays {
		return "", tools.InvalidArgument("days", "must be between 1 and %d, got %d", MaxListDays, days)
	}

	start := call.Now
	end := start.AddDate(0, 0, days)

	events, err := call.Service.ListEvents(ctx, timestamp.Format(start), timestamp.Format(end))
	if err != nil {
		return "", err
	}
	return formatEventLines(events), nil
}

func formatEventLines(events []calendar.Event) string {
	if len(events) == 0 {
		return noEventsText
	}

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		summary := ev.Summary
		if summary == "" {
			summary = untitledSummary
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (ID: %s)", ev.RawStart, summary, ev.ID))
	}
	return strings.Join(lines, "\n")
}

func handleAddEvent(ctx context.Context, call *tools.Call) (string, error) {
	summary, err := common.RequiredString(call.Args, "summary")
	if err != nil {
		return "", err
	}
	startText, err := common.RequiredString(call.Args, "start_iso")
	if err != nil {
		return "", err
	}
	endText, err := common.RequiredString(call.Args, "end_iso")
	if err != nil {
		return "", err
	}
	rules, err := common.StringList(call.Args, "recurrence")
	if err != nil {
		return "", err
	}
	recurrence, err := normalizeRecurrence(rules)
	if err != nil {
		return "", err
	}

	return createEvent(ctx, call, summary, startText, endText, "end_iso", recurrence)
}

// createEvent normalizes the bounds, checks their order and creates the
// event. endArg names the argument blamed when end is not after start.
func createEvent(ctx context.Context, call *tools.Call, summary, startText, endText, endArg string, recurrence []string) (string, error) {
	start := call.Timestamps.Normalize(startText)
	end := call.Timestamps.Normalize(endText)
	if err := checkOrder(call.Timestamps, start, end, endArg); err != nil {
		return "", err
	}

	created, err := call.Service.CreateEvent(ctx, calendar.EventInput{
		Summary:    summary,
		Start:      start,
		End:        end,
		TimeZone:   call.Location().String(),
		Recurrence: recurrence,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(createdText, created.ID, created.HTMLLink), nil
}

// checkOrder rejects ranges whose end is not after their start. Bounds that
// do not parse are left for the provider to reject.
func checkOrder(n timestamp.Normalizer, start, end, endArg string) error {
	s, okStart := n.Parse(start)
	e, okEnd := n.Parse(end)
	if okStart && okEnd && !e.After(s) {
		return tools.InvalidArgument(endArg, "must be after the start (%s), got %s", start, end)
	}
	return nil
}

// normalizeRecurrence validates RRULE lines and adds the "RRULE:" prefix
// when it is missing. Other properties such as EXDATE pass through.
func normalizeRecurrence(rules []string) ([]string, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	out := make([]string, 0, len(rules))
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		upper := strings.ToUpper(rule)

		switch {
		case strings.HasPrefix(upper, rrulePrefix):
			rule = upper
		case strings.Contains(rule, propertySplitter):
			out = append(out, rule)
			continue
		default:
			rule = rrulePrefix + upper
		}

		if _, err := rrule.StrToROption(rule); err != nil {
			return nil, tools.InvalidArgument("recurrence", "%q is not a valid RRULE: %v", rule, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func handleUpdateEvent(ctx context.Context, call *tools.Call) (string, error) {
	eventID, err := common.RequiredString(call.Args, "event_id")
	if err != nil {
		return "", err
	}

	patch := calendar.EventPatch{TimeZone: call.Location().String()}

	summary, ok, err := common.OptionalString(call.Args, "summary")
	if err != nil {
		return "", err
	}
	if ok && strings.TrimSpace(summary) != "" {
		patch.Summary = &summary
	}
	for _, field := range []struct {
		arg    string
		target **string
	}{
		{"start_iso", &patch.Start},
		{"end_iso", &patch.End},
	} {
		text, ok, err := common.OptionalString(call.Args, field.arg)
		if err != nil {
			return "", err
		}
		if ok && strings.TrimSpace(text) != "" {
			normalized := call.Timestamps.Normalize(text)
			*field.target = &normalized
		}
	}

	if patch.Empty() {
		return "", tools.InvalidArgument("event_id", "nothing to update, pass at least one of summary, start_iso or end_iso")
	}
	if patch.Start != nil && patch.End != nil {
		if err := checkOrder(call.Timestamps, *patch.Start, *patch.End, "end_iso"); err != nil {
			return "", err
		}
	}

	if _, err := call.Service.PatchEvent(ctx, eventID, patch); err != nil {
		return "", err
	}
	return updatedText, nil
}

func handleDeleteEvent(ctx context.Context, call *tools.Call) (string, error) {
	eventID, err := common.RequiredString(call.Args, "event_id")
	if err != nil {
		return "", err
	}
	if err := call.Service.DeleteEvent(ctx, eventID); err != nil {
		return "", err
	}
	return deletedText, nil
}

// eventStart returns when ev starts in loc. All-day events start at
// midnight of their date in loc.
func eventStart(ev calendar.Event, loc *time.Location) (time.Time, bool) {
	if ev.AllDay {
		t, err := time.ParseInLocation(time.DateOnly, ev.RawStart, loc)
		return t, err == nil
	}
	return ev.Start, !ev.Start.IsZero()
}
