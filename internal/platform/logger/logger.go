package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Chesten223/SoRight3/internal/config"
)

// ParseLevel converts a configured level name (case-insensitive) into a
// slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// New creates a JSON logger writing to out at the configured level. An
// unknown level falls back to info and is reported once on the new logger.
func New(out io.Writer, levelName string) *slog.Logger {
	level, err := ParseLevel(levelName)

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	log := slog.New(handler)

	if err != nil {
		log.Warn("invalid log level configured, using default level",
			slog.String("configured_level", levelName),
			slog.String("default_level", "info"))
	}
	return log
}

// Setup creates the application logger on stdout from the server
// configuration and installs it as the slog default.
func Setup(cfg config.ServerConfig) *slog.Logger {
	log := New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	return log
}
