// Package calendar_tools implements the six calendar tools the model can
// call: list_events, add_event, update_event, delete_event,
// reschedule_event and delete_events_in_range.
//
// The handlers are registered in a tools.Registry and run by a
// tools.Executor. The same registry can be exposed as MCP tools so MCP
// clients drive the calendar through identical semantics.
//
// reschedule_event and delete_events_in_range are compound and not atomic.
// A reschedule whose second step fails reports the exact state it left
// behind; a range delete reports only the deletions the provider confirmed.
package calendar_tools
