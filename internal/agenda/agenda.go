package agenda

import (
	"context"
	"strings"
	"time"

	"github.com/teemow/planner/internal/calendar"
)

// DefaultDays is the number of calendar days covered, today included.
const DefaultDays = 5

// Labels and formats used for Item fields.
const (
	LabelToday    = "Today"
	LabelTomorrow = "Tomorrow"
	DateLayout    = "Mon, Jan 02"
	ClockLayout   = "03:04 PM"
	UntitledTitle = "No Title"
	urgentKeyword = "deadline"
)

// Lister is the slice of the calendar client agenda needs.
type Lister interface {
	ListEvents(ctx context.Context, timeMin, timeMax string) ([]calendar.Event, error)
}

// Item is one upcoming event, ready for display.
type Item struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	DateLabel string `json:"date_label"`
	IsUrgent  bool   `json:"is_urgent"`

	Start time.Time `json:"-"`
}

// Window returns [midnight today, midnight today + days) in loc.
func Window(now time.Time, loc *time.Location, days int) (time.Time, time.Time) {
	if days <= 0 {
		days = DefaultDays
	}
	now = now.In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, days)
}

// Fetch lists the window around now and builds the agenda.
func Fetch(ctx context.Context, lister Lister, now time.Time, loc *time.Location, days int) ([]Item, error) {
	if days <= 0 {
		days = DefaultDays
	}
	start, end := Window(now, loc, days)
	events, err := lister.ListEvents(ctx, start.Format(time.RFC3339), end.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	return Build(events, now, loc, days), nil
}

// Build converts events into agenda items. Cancelled and all-day events are
// skipped, as are events starting days or more after today.
func Build(events []calendar.Event, now time.Time, loc *time.Location, days int) []Item {
	if days <= 0 {
		days = DefaultDays
	}
	today := civilDay(now.In(loc))

	items := make([]Item, 0, len(events))
	for _, ev := range events {
		if ev.Cancelled() || ev.AllDay || ev.Start.IsZero() {
			continue
		}

		start := ev.Start.In(loc)
		diff := int(civilDay(start).Sub(today).Hours() / 24)
		if diff < 0 || diff >= days {
			continue
		}

		title := ev.Summary
		if title == "" {
			title = UntitledTitle
		}

		item := Item{
			ID:        ev.ID,
			Title:     title,
			StartTime: start.Format(ClockLayout),
			DateLabel: dateLabel(diff, start),
			IsUrgent:  strings.Contains(strings.ToLower(ev.Summary), urgentKeyword),
			Start:     start,
		}
		if !ev.End.IsZero() {
			item.EndTime = ev.End.In(loc).Format(ClockLayout)
		}
		items = append(items, item)
	}
	return items
}

func dateLabel(diff int, start time.Time) string {
	switch diff {
	case 0:
		return LabelToday
	case 1:
		return LabelTomorrow
	default:
		return start.Format(DateLayout)
	}
}

// civilDay is the calendar date of t, independent of its zone offset.
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
