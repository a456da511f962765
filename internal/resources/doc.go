// Package resources provides read-only MCP resources next to the calendar
// tools: the caller's upcoming agenda and the session settings relative
// times resolve against.
package resources
