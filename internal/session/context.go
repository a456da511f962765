package session

import (
	"time"

	"github.com/teemow/planner/internal/timestamp"
)

// Context carries per-session values through a single run.
// It is owned by the caller of the run and must not be shared between
// concurrent runs.
type Context struct {
	// Credential is the bearer token used for calendar calls.
	Credential string

	// Timezone is an IANA zone id used to disambiguate naive timestamps.
	Timezone string

	// PendingAction names the last tool that did not complete successfully.
	PendingAction string

	// PendingDetails holds the arguments of PendingAction.
	PendingDetails map[string]any
}

// New creates a session context for the given credential and timezone.
func New(credential, timezone string) *Context {
	return &Context{
		Credential: credential,
		Timezone:   timezone,
	}
}

// Location resolves the session timezone, falling back when it is empty or
// not a known zone.
func (c *Context) Location(fallback *time.Location) *time.Location {
	if c == nil {
		return timestamp.LoadLocation("", fallback)
	}
	return timestamp.LoadLocation(c.Timezone, fallback)
}

// SetPending records an action that needs follow-up.
func (c *Context) SetPending(action string, details map[string]any) {
	c.PendingAction = action
	if details == nil {
		c.PendingDetails = nil
		return
	}
	c.PendingDetails = make(map[string]any, len(details))
	for k, v := range details {
		c.PendingDetails[k] = v
	}
}

// ClearPending removes any pending action.
func (c *Context) ClearPending() {
	c.PendingAction = ""
	c.PendingDetails = nil
}
