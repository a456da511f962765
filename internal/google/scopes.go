package google

import "github.com/teemow/planner/internal/calendar"

// DefaultOAuthScopes are the scopes requested by the login flow. The
// planner only needs read-write access to events.
var DefaultOAuthScopes = []string{
	calendar.CalendarScope,
}
