package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// New builds a console logger tagged with the app name and environment.
// Unknown levels fall back to info.
func New(appName, env, level string) zerolog.Logger {
	return NewWithWriter(os.Stderr, appName, env, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, appName, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    env == "production",
	}
	return zerolog.New(output).Level(lvl).With().
		Timestamp().
		Str("app", appName).
		Str("env", env).
		Logger()
}

// IntoContext injects a logger into context for downstream use.
func IntoContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return zerolog.Nop()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}
