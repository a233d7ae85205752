// Package rag contains the internal machinery of the pdfrag pipeline:
// document parsing, chunking, hashing, embedding, and vector storage.
package rag

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// LogLevel controls logging verbosity. Higher values log more.
type LogLevel int

const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Logger is the logging contract used throughout the pipeline. Messages
// carry optional alternating key-value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	SetLevel(level LogLevel)
}

// DefaultLogger writes leveled messages to stderr using the standard
// library log package.
type DefaultLogger struct {
	logger *log.Logger
	level  LogLevel
}

// NewLogger returns a DefaultLogger writing to stderr at the given level.
func NewLogger(level LogLevel) Logger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "", log.LstdFlags),
		level:  level,
	}
}

func (l *DefaultLogger) SetLevel(level LogLevel) { l.level = level }

func (l *DefaultLogger) log(level LogLevel, msg string, keysAndValues ...interface{}) {
	if level > l.level {
		return
	}
	if len(keysAndValues) == 0 {
		l.logger.Printf("%s: %s", level, msg)
		return
	}
	var b strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 != 0 {
		fmt.Fprintf(&b, " %v", keysAndValues[len(keysAndValues)-1])
	}
	l.logger.Printf("%s: %s%s", level, msg, b.String())
}

func (l *DefaultLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelDebug, msg, keysAndValues...)
}

func (l *DefaultLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelInfo, msg, keysAndValues...)
}

func (l *DefaultLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelWarn, msg, keysAndValues...)
}

func (l *DefaultLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelError, msg, keysAndValues...)
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "OFF"
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// UnmarshalText lets LogLevel be set from configuration strings.
func (l *LogLevel) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "OFF":
		*l = LogLevelOff
	case "ERROR":
		*l = LogLevelError
	case "WARN":
		*l = LogLevelWarn
	case "INFO":
		*l = LogLevelInfo
	case "DEBUG":
		*l = LogLevelDebug
	default:
		return fmt.Errorf("invalid log level: %s", string(text))
	}
	return nil
}

// GlobalLogger is the package-level logger shared by the pipeline.
var GlobalLogger Logger = NewLogger(LogLevelInfo)

// SetGlobalLogLevel adjusts the verbosity of the shared logger.
func SetGlobalLogLevel(level LogLevel) {
	GlobalLogger.SetLevel(level)
}
