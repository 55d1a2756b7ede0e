package logger

import "io"

// NullLogger swallows everything. Used as the default when no logger has
// been injected.
type NullLogger struct{}

func NewNullLogger() *NullLogger { return &NullLogger{} }

func (n *NullLogger) Debug(format string, args ...any) {}
func (n *NullLogger) Info(format string, args ...any)  {}
func (n *NullLogger) Warn(format string, args ...any)  {}
func (n *NullLogger) Error(format string, args ...any) {}

func (n *NullLogger) SetLevel(level LogLevel) {}
func (n *NullLogger) GetLevel() LogLevel     { return LogLevelNone }
func (n *NullLogger) SetOutput(w io.Writer)  {}
