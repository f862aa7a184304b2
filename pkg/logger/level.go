package logger

import (
	"context"
	"log/slog"
)

// leveled filters records below a level that can change while the
// logger is in use.
type leveled struct {
	slog.Handler
	min slog.Leveler
}

func (l *leveled) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= l.min.Level() && l.Handler.Enabled(ctx, level)
}

func (l *leveled) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &leveled{Handler: l.Handler.WithAttrs(attrs), min: l.min}
}

func (l *leveled) WithGroup(name string) slog.Handler {
	return &leveled{Handler: l.Handler.WithGroup(name), min: l.min}
}
