// Package cmd implements the command-line interface for planner.
//
// This package provides the following commands:
//   - serve: Start the HTTP API (/chat, /events/upcoming, health probes)
//   - chat: Run planning requests from the terminal
//   - upcoming: Print the next days of events
//   - mcp: Serve the calendar tools over MCP on stdio
//   - auth: Log in, log out and inspect saved Google credentials
//   - generate-docs: Generate markdown documentation for the calendar tools
//   - version: Display version information
//
// Configuration is read from flags, PLANNER_* environment variables and an
// optional config file, in that order of precedence.
package cmd
