package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/snnyvrz/books-catalog/internal/config"
)

// New builds the process logger from cfg and installs it as the slog
// default. "json" selects the JSON handler, anything else the text handler
// with source locations.
func New(cfg config.LogConfig) *slog.Logger {
	l := NewWithWriter(os.Stderr, cfg)
	slog.SetDefault(l)
	return l
}

func NewWithWriter(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: !strings.EqualFold(cfg.Format, "json"),
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func ParseLevel(s string) slog.Level {
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
