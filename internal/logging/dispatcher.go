package logging

import "github.com/rs/zerolog"

// DispatcherLogger writes dispatcher diagnostics as zerolog JSON lines.
// Arguments are alternating keys and values; a trailing key is dropped.
type DispatcherLogger struct {
	zl zerolog.Logger
}

// NewDispatcherLogger wraps zl.
func NewDispatcherLogger(zl zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{zl: zl}
}

// With returns a child logger that adds the given pairs to every line.
func (l *DispatcherLogger) With(keysAndValues ...any) *DispatcherLogger {
	return &DispatcherLogger{zl: l.zl.With().Fields(pairs(keysAndValues)).Logger()}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	l.zl.Debug().Fields(pairs(keysAndValues)).Msg(msg)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	l.zl.Info().Fields(pairs(keysAndValues)).Msg(msg)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	l.zl.Error().Fields(pairs(keysAndValues)).Msg(msg)
}

// pairs trims an odd trailing key. zerolog skips pairs whose key is not a string.
func pairs(kv []any) []any {
	if len(kv)%2 == 1 {
		return kv[:len(kv)-1]
	}
	return kv
}
