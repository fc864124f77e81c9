package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is shared by the installed handler so it can be changed at runtime.
var Level = new(slog.LevelVar)

func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the default slog logger: JSON in production, text elsewhere.
func Setup(level, environment string) *slog.Logger {
	return SetupWriter(os.Stdout, level, environment)
}

func SetupWriter(w io.Writer, level, environment string) *slog.Logger {
	Level.Set(ParseLevel(level))
	opts := &slog.HandlerOptions{Level: Level}

	var handler slog.Handler
	if environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler).With("service", "perfboard")
	slog.SetDefault(logger)
	return logger
}
