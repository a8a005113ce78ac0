package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON structured logger writing to stdout. Level defaults to
// info; set level to slog.LevelDebug to surface per-call castle request logs.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
