// Package logging builds the structured logger shared across the audit
// service, following the teacher's log/slog convention used throughout
// internal/controller and internal/jobmanager.
package logging

import (
	"log/slog"
	"os"

	"github.com/mosip/audit-manager/internal/config"
)

// New builds a *slog.Logger from a Logging config section: level is one
// of debug|info|warn|error (default info on an unrecognized value);
// format is json or text (default text).
func New(cfg config.Logging) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
