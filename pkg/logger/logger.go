// Package logger builds the zap loggers used across recall.
package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// New creates a structured logger. The json format uses zap's production
// encoder; anything else gets the human-readable development encoder.
func New(level LogLevel, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == FormatJSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

// FormatFor picks the default format for an environment name.
func FormatFor(env string) string {
	switch strings.ToLower(env) {
	case "production", "prod", "staging":
		return FormatJSON
	}
	return FormatConsole
}

// Init builds the global logger. An empty format is derived from env.
func Init(env string, level LogLevel, format string) (*zap.Logger, error) {
	if format == "" {
		format = FormatFor(env)
	}
	l, err := New(level, format)
	if err != nil {
		return nil, err
	}
	l = l.With(zap.String("env", env))

	mu.Lock()
	global = l
	mu.Unlock()
	return l, nil
}

// L returns the global logger; a no-op logger until Init is called.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync flushes the global logger.
func Sync() error {
	return L().Sync()
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch LogLevel(strings.ToLower(string(level))) {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
