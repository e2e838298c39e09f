package types

// Logger is the structured logger passed into every component.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...any)
	Info(msg string)
	Infof(format string, args ...any)
	Error(msg string)
	Errorf(format string, args ...any)
	WithField(key string, value any) Logger
	WithFields(fields map[string]any) Logger
}

// NoopLogger returns a Logger that discards everything.
func NoopLogger() Logger { //nolint:ireturn
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debug(string)                   {}
func (noopLogger) Debugf(string, ...any)          {}
func (noopLogger) Info(string)                    {}
func (noopLogger) Infof(string, ...any)           {}
func (noopLogger) Error(string)                   {}
func (noopLogger) Errorf(string, ...any)          {}
func (n noopLogger) WithField(string, any) Logger { return n }

func (n noopLogger) WithFields(map[string]any) Logger { return n }
