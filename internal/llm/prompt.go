package llm

import (
	"fmt"
	"time"

	"github.com/teemow/planner/internal/timestamp"
)

const promptTemplate = `You are an AI Personal Planning Assistant that manages the user's Google Calendar.

Current Date & Time: %s (%s, UTC%s)

You have access to the following tools. To use a tool, reply with ONLY one JSON object and nothing else:

%s

RULES:
- DATES: Always use ISO 8601 with a timezone offset (e.g. "%s"). Never output a date-time without an offset.
- IDS: Event ids come only from list_events or add_event results. Never invent an id; list events first when you do not know it.
- MASS ACTIONS: For requests like "clear today" or "delete everything this week", use delete_events_in_range and compute the range from the current date and time above.
- RECURRENCE: For recurring events add "recurrence": "RRULE:FREQ=WEEKLY;COUNT=10" to the add_event args.
- TOOL OUTPUT: Messages starting with "Calendar Tool Output:" are results of your last tool call. Read them before answering; report failures honestly.
- RESPONSE: If you need more information, ask naturally. When you are done, answer in plain text without JSON.`

// Prompt renders the system prompt for the planning assistant.
type Prompt struct {
	// Contract lists the tool JSON shapes, one per line.
	Contract string
}

// Render returns the system prompt for a call made at now. The prompt
// states the current time in now's zone so relative dates resolve there.
func (p Prompt) Render(now time.Time) string {
	zone := now.Location().String()
	offset := now.Format("-07:00")
	return fmt.Sprintf(promptTemplate,
		now.Format(time.DateTime),
		zone,
		offset,
		p.Contract,
		timestamp.Format(time.Date(now.Year(), now.Month(), now.Day()+1, 10, 0, 0, 0, now.Location())),
	)
}
