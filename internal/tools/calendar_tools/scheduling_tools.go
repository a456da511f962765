package calendar_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/timestamp"
	"github.com/teemow/planner/internal/tools"
	"github.com/teemow/planner/internal/tools/batch"
	"github.com/teemow/planner/internal/tools/common"
)

// RescheduleOrder selects which half of a reschedule runs first.
type RescheduleOrder string

const (
	// RescheduleCreateFirst creates the replacement before deleting the
	// original, so a failure never leaves the user without the event.
	RescheduleCreateFirst RescheduleOrder = "create-first"

	// RescheduleDeleteFirst deletes the original before creating the
	// replacement.
	RescheduleDeleteFirst RescheduleOrder = "delete-first"
)

// ParseRescheduleOrder parses a configured order. Empty means create-first.
func ParseRescheduleOrder(s string) (RescheduleOrder, error) {
	switch RescheduleOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", RescheduleCreateFirst:
		return RescheduleCreateFirst, nil
	case RescheduleDeleteFirst:
		return RescheduleDeleteFirst, nil
	default:
		return "", fmt.Errorf("invalid reschedule order %q (valid: %s, %s)", s, RescheduleCreateFirst, RescheduleDeleteFirst)
	}
}

const (
	rescheduledText    = "Event rescheduled successfully. New ID: %s | Link: %s"
	rescheduleFailText = "Failed to reschedule: %s The original event was not changed."
	rangeEmptyText     = "No events found in range."
	rangeDeletedText   = "Deleted %d events."
	rangePartialText   = "%d of %d deletions failed and those events still exist (IDs: %s). The range was only partially cleared."
	rangeRejectedText  = "Error: Google rejected dates. Tried: %s to %s"
	rangeOutsideText   = "%d overlapping events outside the range were left untouched."
)

type reschedule struct {
	oldID      string
	summary    string
	start, end string
}

func (h *handlers) handleRescheduleEvent(ctx context.Context, call *tools.Call) (string, error) {
	var (
		r   reschedule
		err error
	)
	if r.oldID, err = common.RequiredString(call.Args, "old_event_id"); err != nil {
		return "", err
	}
	if r.summary, err = common.RequiredString(call.Args, "new_summary"); err != nil {
		return "", err
	}
	if r.start, err = common.RequiredString(call.Args, "new_start_iso"); err != nil {
		return "", err
	}
	if r.end, err = common.RequiredString(call.Args, "new_end_iso"); err != nil {
		return "", err
	}

	r.start = call.Timestamps.Normalize(r.start)
	r.end = call.Timestamps.Normalize(r.end)
	if err := checkOrder(call.Timestamps, r.start, r.end, "new_end_iso"); err != nil {
		return "", err
	}

	if h.rescheduleOrder == RescheduleDeleteFirst {
		return deleteThenCreate(ctx, call, r)
	}
	return createThenDelete(ctx, call, r)
}

func (r reschedule) input(call *tools.Call) calendar.EventInput {
	return calendar.EventInput{
		Summary:  r.summary,
		Start:    r.start,
		End:      r.end,
		TimeZone: call.Location().String(),
	}
}

func createThenDelete(ctx context.Context, call *tools.Call, r reschedule) (string, error) {
	created, err := call.Service.CreateEvent(ctx, r.input(call))
	if err != nil {
		return "", firstStepFailed(err)
	}

	if err := call.Service.DeleteEvent(ctx, r.oldID); err != nil {
		state := tools.CreatedNotDeleted
		if calendar.IsNotFound(err) {
			state = tools.CreatedOriginalMissing
		}
		return "", &tools.CompoundOperationError{
			State:      state,
			OldEventID: r.oldID,
			NewEventID: created.ID,
			Err:        err,
		}
	}
	return fmt.Sprintf(rescheduledText, created.ID, created.HTMLLink), nil
}

func deleteThenCreate(ctx context.Context, call *tools.Call, r reschedule) (string, error) {
	if err := call.Service.DeleteEvent(ctx, r.oldID); err != nil {
		return "", firstStepFailed(err)
	}

	created, err := call.Service.CreateEvent(ctx, r.input(call))
	if err != nil {
		return "", &tools.CompoundOperationError{
			State:      tools.DeletedNotRecreated,
			OldEventID: r.oldID,
			Err:        err,
		}
	}
	return fmt.Sprintf(rescheduledText, created.ID, created.HTMLLink), nil
}

func firstStepFailed(err error) error {
	return &tools.GuidanceError{
		Text: fmt.Sprintf(rescheduleFailText, strings.TrimSuffix(tools.RenderError(err), ".")+"."),
		Err:  err,
	}
}

func (h *handlers) handleDeleteEventsInRange(ctx context.Context, call *tools.Call) (string, error) {
	startText, err := common.RequiredString(call.Args, "start_date")
	if err != nil {
		return "", err
	}
	endText, err := common.RequiredString(call.Args, "end_date")
	if err != nil {
		return "", err
	}

	start := call.Timestamps.Normalize(startText)
	end := call.Timestamps.Normalize(endText)
	if err := checkOrder(call.Timestamps, start, end, "end_date"); err != nil {
		return "", err
	}

	events, err := call.Service.ListEvents(ctx, start, end)
	if err != nil {
		var perr *calendar.ProviderError
		if errors.As(err, &perr) && perr.BadRequest() {
			return "", &tools.GuidanceError{Text: fmt.Sprintf(rangeRejectedText, start, end), Err: err}
		}
		return "", err
	}

	ids, outside := eventsInRange(events, call.Timestamps, call.Location(), start, end)
	note := ""
	if outside > 0 {
		note = " " + fmt.Sprintf(rangeOutsideText, outside)
	}
	if len(ids) == 0 {
		return rangeEmptyText + note, nil
	}

	results := batch.Process(ctx, ids, h.rangeOptions(), func(ctx context.Context, id string) (string, error) {
		if err := call.Service.DeleteEvent(ctx, id); err != nil {
			return "", err
		}
		return deletedText, nil
	})

	deleted, failed := batch.Counts(results)
	text := fmt.Sprintf(rangeDeletedText, deleted)
	if failed > 0 {
		text += " " + fmt.Sprintf(rangePartialText, failed, len(ids), strings.Join(batch.FailedIDs(results), ", "))
	}
	return text + note, nil
}

// eventsInRange returns the ids of events starting in [start, end) and the
// number of listed events that only overlap the window. When a bound does
// not parse every listed event is kept.
func eventsInRange(events []calendar.Event, n timestamp.Normalizer, loc *time.Location, start, end string) ([]string, int) {
	from, okFrom := n.Parse(start)
	to, okTo := n.Parse(end)

	ids := make([]string, 0, len(events))
	outside := 0
	for _, ev := range events {
		if ev.ID == "" || ev.Cancelled() {
			continue
		}
		if okFrom && okTo {
			at, ok := eventStart(ev, loc)
			if ok && (at.Before(from) || !at.Before(to)) {
				outside++
				continue
			}
		}
		ids = append(ids, ev.ID)
	}
	return ids, outside
}
