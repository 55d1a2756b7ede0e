package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// DefaultLogger writes timestamped, colored, prefixed lines to a writer.
type DefaultLogger struct {
	mu    sync.RWMutex
	level LogLevel
	out   *log.Logger
	name  string
}

// NewDefaultLogger creates a logger at info level writing to stdout.
func NewDefaultLogger(name string) *DefaultLogger {
	return &DefaultLogger{
		level: LogLevelInfo,
		out:   log.New(os.Stdout, "", 0),
		name:  name,
	}
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *DefaultLogger) GetLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *DefaultLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetOutput(w)
}

func (l *DefaultLogger) emit(level LogLevel, format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.level < level {
		return
	}

	ts := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	if l.name != "" {
		l.out.Printf("%s [%s] %s%s%s: %s", ts, l.name, levelColor(level), level.String(), colorReset, msg)
	} else {
		l.out.Printf("%s %s%s%s: %s", ts, levelColor(level), level.String(), colorReset, msg)
	}
}

func (l *DefaultLogger) Debug(format string, args ...any) {
	l.emit(LogLevelDebug, format, args...)
}

func (l *DefaultLogger) Info(format string, args ...any) {
	l.emit(LogLevelInfo, format, args...)
}

func (l *DefaultLogger) Warn(format string, args ...any) {
	l.emit(LogLevelWarn, format, args...)
}

func (l *DefaultLogger) Error(format string, args ...any) {
	l.emit(LogLevelError, format, args...)
}
