package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type contextKey struct{}

// New creates a structured logger with the default console output.
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// WithContext stores the logger in the context.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext retrieves the logger from the context, falling back to a
// default logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(contextKey{}).(zerolog.Logger); ok {
		return log
	}
	return New()
}
