// Package logx provides the standard logger used across the wxmcp project.
//
// Both processes log to stderr: on the server side stdout carries the protocol
// stream and must stay clean, and the client mirrors that so child stderr can
// be forwarded without interleaving into its own output.
package logx

import (
	"io"
	"log"
	"os"
	"sync"
)

// Level controls which messages a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger defines the interface for logging.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	SetLevel(level Level)
}

// DefaultLogger is a leveled logger over the standard log package.
type DefaultLogger struct {
	logger *log.Logger
	mu     sync.Mutex
	level  Level
}

// NewDefaultLogger creates a logger writing to stderr at LevelInfo.
func NewDefaultLogger() *DefaultLogger {
	return NewLoggerWithWriter(os.Stderr)
}

// NewLoggerWithWriter creates a logger writing to w at LevelInfo.
func NewLoggerWithWriter(w io.Writer) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(w, "[wxmcp] ", log.LstdFlags|log.Lmsgprefix),
		level:  LevelInfo,
	}
}

// SetLevel updates the minimum level this logger emits.
func (l *DefaultLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *DefaultLogger) enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func (l *DefaultLogger) Debug(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.logger.Printf("DEBUG: "+format, v...)
	}
}

func (l *DefaultLogger) Info(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.logger.Printf("INFO: "+format, v...)
	}
}

func (l *DefaultLogger) Warn(format string, v ...interface{}) {
	if l.enabled(LevelWarn) {
		l.logger.Printf("WARN: "+format, v...)
	}
}

func (l *DefaultLogger) Error(format string, v ...interface{}) {
	if l.enabled(LevelError) {
		l.logger.Printf("ERROR: "+format, v...)
	}
}

var _ Logger = (*DefaultLogger)(nil)

// NopLogger discards everything. Useful in tests.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) SetLevel(Level)               {}

var _ Logger = NopLogger{}
