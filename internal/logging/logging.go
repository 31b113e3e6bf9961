// Package logging builds the zap loggers used across cellframe.
package logging

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field keys shared by components.
const (
	KeyComponent  = "component"
	KeyChannel    = "channel"
	KeyDurationMs = "durationMs"
)

// New returns a logger at the given level ("debug", "info", "warn", "error").
// development switches to the human-readable console encoder.
func New(level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.DisableStacktrace = !development
	return cfg.Build()
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Timed runs fn and logs how long it took at debug level under label.
func Timed(l *zap.Logger, label string, fn func() error) error {
	start := time.Now()
	err := fn()
	l.Debug(label,
		zap.Int64(KeyDurationMs, time.Since(start).Milliseconds()),
		zap.Bool("ok", err == nil))
	return err
}
