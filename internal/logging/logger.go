package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// ParseLevel converts a level name to a Level, defaulting to INFO.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger defines a minimal, printf-style logging contract.
//
// Callers depend on this interface so tests can substitute a recorder and
// library users can plug in their own sink.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// componentLogger writes leveled, component-tagged lines to stderr.
type componentLogger struct {
	mu        sync.Mutex
	out       *log.Logger
	level     Level
	component string
}

var (
	rootOnce sync.Once
	rootOut  *log.Logger
)

func rootOutput() *log.Logger {
	rootOnce.Do(func() {
		rootOut = log.New(os.Stderr, "", log.LstdFlags)
	})
	return rootOut
}

// NewComponentLogger creates a logger scoped to a component name. The level
// comes from TEAMUP_LOG_LEVEL when set, otherwise INFO.
func NewComponentLogger(component string) Logger {
	return &componentLogger{
		out:       rootOutput(),
		level:     ParseLevel(os.Getenv("TEAMUP_LOG_LEVEL")),
		component: component,
	}
}

// NewWithLevel creates a component logger at an explicit level.
func NewWithLevel(component string, level Level) Logger {
	return &componentLogger{
		out:       rootOutput(),
		level:     level,
		component: component,
	}
}

func (l *componentLogger) logf(level Level, tag, format string, args ...any) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		l.out.Printf("[%s] [%s] %s", tag, l.component, msg)
		return
	}
	l.out.Printf("[%s] %s", tag, msg)
}

func (l *componentLogger) Debug(format string, args ...any) {
	l.logf(DEBUG, "DEBUG", format, args...)
}

func (l *componentLogger) Info(format string, args ...any) {
	l.logf(INFO, "INFO", format, args...)
}

func (l *componentLogger) Warn(format string, args ...any) {
	l.logf(WARN, "WARN", format, args...)
}

func (l *componentLogger) Error(format string, args ...any) {
	l.logf(ERROR, "ERROR", format, args...)
}
