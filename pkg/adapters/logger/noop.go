package logger

import "github.com/user/framesync/pkg/ports"

// NoopLogger discards everything. Used for --quiet and in tests.
type NoopLogger struct{}

func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(string, ...interface{}) {}
func (l *NoopLogger) Info(string, ...interface{})  {}
func (l *NoopLogger) Warn(string, ...interface{})  {}
func (l *NoopLogger) Error(string, ...interface{}) {}

func (l *NoopLogger) WithComponent(string) ports.Logger {
	return l
}

var _ ports.Logger = (*NoopLogger)(nil)
