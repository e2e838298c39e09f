// Package logging provides the zap-backed implementation of types.Logger.
package logging

import (
	"fmt"

	"github.com/civicpulse/mayoralert/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EncodingJSON    = "json"
	EncodingConsole = "console"
)

// Logger adapts a zap.SugaredLogger to types.Logger.
type Logger struct {
	s *zap.SugaredLogger
}

var _ types.Logger = (*Logger)(nil)

// New builds a logger writing to stderr at the given level ("debug", "info",
// "warn", "error") with the given encoding (EncodingJSON or EncodingConsole).
func New(level, encoding string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config

	switch encoding {
	case EncodingJSON:
		cfg = zap.NewProductionConfig()
	case EncodingConsole:
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log encoding %q", encoding)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return NewFromZap(z), nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{s: z.Sugar()}
}

func (l *Logger) Debug(msg string) { l.s.Debug(msg) }

func (l *Logger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }

func (l *Logger) Info(msg string) { l.s.Info(msg) }

func (l *Logger) Infof(format string, args ...any) { l.s.Infof(format, args...) }

func (l *Logger) Error(msg string) { l.s.Error(msg) }

func (l *Logger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

func (l *Logger) WithField(key string, value any) types.Logger { //nolint:ireturn
	return &Logger{s: l.s.With(key, value)}
}

func (l *Logger) WithFields(fields map[string]any) types.Logger { //nolint:ireturn
	args := make([]any, 0, len(fields)*2)

	for k, v := range fields {
		args = append(args, k, v)
	}

	return &Logger{s: l.s.With(args...)}
}

// Zap returns the underlying structured logger.
func (l *Logger) Zap() *zap.Logger {
	return l.s.Desugar()
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.s.Sync()
}
