// Package logger builds the slog loggers used across vmentor: colorized
// output for the CLI, JSON for services and a discard logger for tests.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

type config struct {
	level    slog.Level
	levelVar *slog.LevelVar
	pretty   bool
	json    bool
	source   bool
	writers  []io.Writer
}

// New creates a *slog.Logger. Without options it writes Info and above as
// slog text to os.Stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(cfg)
	}

	var w io.Writer = os.Stdout
	switch len(cfg.writers) {
	case 0:
	case 1:
		w = cfg.writers[0]
	default:
		w = io.MultiWriter(cfg.writers...)
	}

	if cfg.levelVar != nil {
		// The wrapper does the filtering; let everything through underneath.
		minLevel := cfg.levelVar
		cfg.level = slog.LevelDebug
		return slog.New(&leveled{Handler: newHandler(w, cfg), min: minLevel})
	}

	return slog.New(newHandler(w, cfg))
}

func newHandler(w io.Writer, cfg *config) slog.Handler {
	switch {
	case cfg.json:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     cfg.level,
			AddSource: cfg.source,
		})

	case cfg.pretty:
		return log.NewWithOptions(w, log.Options{
			Level:           log.Level(cfg.level),
			ReportTimestamp: true,
			ReportCaller:    cfg.source,
		})

	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     cfg.level,
			AddSource: cfg.source,
		})
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
