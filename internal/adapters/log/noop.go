package log

import "github.com/fintab-labs/gridsave/internal/ports"

// NoopLogger discards all log messages. It is the default for embedded use.
type NoopLogger struct{}

// NewNoop creates a no-op logger.
func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

func (*NoopLogger) Debug(msg string, fields ...ports.Field) {}
func (*NoopLogger) Info(msg string, fields ...ports.Field)  {}
func (*NoopLogger) Warn(msg string, fields ...ports.Field)  {}
func (*NoopLogger) Error(msg string, fields ...ports.Field) {}
