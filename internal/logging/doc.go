// Package logging provides structured logging helpers for the planner.
//
// All logging goes through log/slog. This package fixes attribute names so
// that run ids, tool names and errors look the same in every component, and
// keeps credentials out of log output.
//
//	logger := logging.WithRun(slog.Default(), runID)
//	logger.Info("tool dispatched", logging.Tool("add_event"), logging.Turn(2))
//
// Bearer credentials must only ever be logged through SanitizeToken.
package logging
