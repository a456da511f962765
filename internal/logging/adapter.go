package logging

import (
	"log"
	"log/slog"
)

// StdLogger returns a *log.Logger that writes each line as one slog record
// at level, for libraries that only accept the standard logger. A nil
// logger means slog.Default().
func StdLogger(logger *slog.Logger, level slog.Level) *log.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slog.NewLogLogger(logger.Handler(), level)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
