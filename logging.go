package ledger

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger builds a text slog logger writing to stderr at the given level
// and installs it as the process default. The engine itself never reads the
// default logger: a System carries its own logger, and InitLogger's result is
// what callers are expected to hand it.
func InitLogger(logLevelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(logLevelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		slog.Warn("invalid log level, defaulting to info", "configuredLevel", logLevelStr)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
