// Package logger provides the zap-backed implementation of the logging
// interface used throughout the application.
package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter adapts a zap logger to the application's logging interface
// (context plus a map of structured fields).
type ZapAdapter struct {
	log *zap.SugaredLogger
}

// New creates a ZapAdapter writing console-encoded lines to stderr at the
// given level. Diagnostics go to stderr so that stdout stays reserved for
// the computed version output.
func New(level zapcore.Level) *ZapAdapter {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	return &ZapAdapter{log: zap.New(core).Sugar()}
}

// NewFromEnv creates a ZapAdapter with the level taken from the LOG_LEVEL
// environment variable; verbose forces debug.
func NewFromEnv(verbose bool) *ZapAdapter {
	if verbose {
		return New(zapcore.DebugLevel)
	}
	return New(ParseLevel(os.Getenv("LOG_LEVEL")))
}

// NewWithSugared wraps an existing sugared logger, for tests.
func NewWithSugared(log *zap.SugaredLogger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// ParseLevel converts a level string to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Info logs an info message.
func (a *ZapAdapter) Info(_ context.Context, msg string, fields map[string]interface{}) {
	a.log.Infow(msg, flatten(fields)...)
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(_ context.Context, msg string, fields map[string]interface{}) {
	a.log.Debugw(msg, flatten(fields)...)
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(_ context.Context, msg string, fields map[string]interface{}) {
	a.log.Warnw(msg, flatten(fields)...)
}

// Error logs an error message.
func (a *ZapAdapter) Error(_ context.Context, msg string, err error, fields map[string]interface{}) {
	args := flatten(fields)
	if err != nil {
		args = append(args, "error", err.Error())
	}
	a.log.Errorw(msg, args...)
}

// Sync flushes any buffered log entries.
func (a *ZapAdapter) Sync() error {
	return a.log.Sync()
}

func flatten(fields map[string]interface{}) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}
	return args
}
