package daemon

import (
	"io"
	"log"
	"strings"
)

// Logger is the logging capability the daemon components need.
type Logger interface {
	Printf(format string, v ...interface{})
}

type leveledLogger interface {
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// Log levels, lowest first.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel converts a level name (error|warn|info|debug) to a level.
// Unknown names map to info.
func ParseLevel(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LevelLogger is a log.Logger that drops messages below its level.
// Printf logs at info.
type LevelLogger struct {
	logger *log.Logger
	level  int
}

// NewLogger creates a logger writing to w with log.LstdFlags.
func NewLogger(w io.Writer, level string) *LevelLogger {
	return &LevelLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  ParseLevel(level),
	}
}

func (l *LevelLogger) logf(level int, prefix, format string, v ...interface{}) {
	if level < l.level {
		return
	}
	l.logger.Printf(prefix+format, v...)
}

// Debugf logs at debug level.
func (l *LevelLogger) Debugf(format string, v ...interface{}) {
	l.logf(LevelDebug, "debug: ", format, v...)
}

// Printf logs at info level.
func (l *LevelLogger) Printf(format string, v ...interface{}) {
	l.logf(LevelInfo, "", format, v...)
}

// Warnf logs at warn level.
func (l *LevelLogger) Warnf(format string, v ...interface{}) {
	l.logf(LevelWarn, "warning: ", format, v...)
}

// Errorf logs at error level.
func (l *LevelLogger) Errorf(format string, v ...interface{}) {
	l.logf(LevelError, "error: ", format, v...)
}

// debugf is dropped unless logger is leveled.
func debugf(logger Logger, format string, v ...interface{}) {
	if l, ok := logger.(leveledLogger); ok {
		l.Debugf(format, v...)
	}
}

func warnf(logger Logger, format string, v ...interface{}) {
	if l, ok := logger.(leveledLogger); ok {
		l.Warnf(format, v...)
		return
	}
	logger.Printf("warning: "+format, v...)
}

func errorf(logger Logger, format string, v ...interface{}) {
	if l, ok := logger.(leveledLogger); ok {
		l.Errorf(format, v...)
		return
	}
	logger.Printf("error: "+format, v...)
}
