package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/coral-backend/internal/config"
)

// NewLogger builds the process logger for one binary (server, scan or check),
// installs it as the slog default and tags every record with the binary name
// and build version. Records go to stderr so the scan CLI can keep stdout for
// its JSON report.
func NewLogger(cfg config.LogConfig, binary string) *slog.Logger {
	logger := newLogger(os.Stderr, cfg).With(
		slog.String("binary", binary),
		slog.String("version", Version),
	)
	slog.SetDefault(logger)
	return logger
}

// newLogger picks the handler: "json" for production, anything else is
// text with source locations for local runs.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	isJSON := strings.EqualFold(strings.TrimSpace(cfg.Format), "json")
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: !isJSON,
	}
	if isJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
