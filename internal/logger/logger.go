package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type contextKey struct{}

var base = New("info", false)

// New creates a structured logger. Unknown levels fall back to info; pretty
// switches to the human-readable console writer.
func New(level string, pretty bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return NewWithWriter(out).Level(parseLevel(level))
}

// NewWithWriter creates a logger writing JSON lines to w.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetDefault replaces the logger returned by FromContext when none is attached.
func SetDefault(l zerolog.Logger) {
	base = l
}

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger attached to ctx, or the default one.
func FromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(contextKey{}).(zerolog.Logger); ok {
		return &l
	}

	l := base

	return &l
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}

	return lvl
}
