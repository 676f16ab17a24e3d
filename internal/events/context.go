package events

import (
	"context"
	"os"
	"sync"
)

type contextKey int

const (
	loggerKey contextKey = iota
	commandKey
	tombKey
)

// FromContext extracts logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	// Return default logger
	return defaultLogger
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithCommand records the running command and tags the logger with it.
func WithCommand(ctx context.Context, name string) context.Context {
	logger := FromContext(ctx).WithField("command", name)
	ctx = context.WithValue(ctx, commandKey, name)
	return WithLogger(ctx, logger)
}

// WithTomb records the tomb file in use and tags the logger with it.
func WithTomb(ctx context.Context, path string) context.Context {
	logger := FromContext(ctx).WithField("tomb", path)
	ctx = context.WithValue(ctx, tombKey, path)
	return WithLogger(ctx, logger)
}

// GetCommand retrieves the command name from context.
func GetCommand(ctx context.Context) string {
	if name, ok := ctx.Value(commandKey).(string); ok {
		return name
	}
	return ""
}

// GetTomb retrieves the tomb file path from context.
func GetTomb(ctx context.Context) string {
	if path, ok := ctx.Value(tombKey).(string); ok {
		return path
	}
	return ""
}

var defaultLogger = &Logger{
	mu:     &sync.Mutex{},
	level:  WarnLevel,
	format: "text",
	output: os.Stderr,
	fields: make(map[string]interface{}),
}

// Default returns the process wide logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
