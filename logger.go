package pdfrag

import (
	"github.com/nmehta6/pdfrag/internal/rag"
)

// LogLevel selects how verbose the package-wide logger is. Levels decode
// from configuration strings ("off" through "debug") via UnmarshalText.
type LogLevel = rag.LogLevel

const (
	LogLevelOff   = rag.LogLevelOff
	LogLevelError = rag.LogLevelError
	LogLevelWarn  = rag.LogLevelWarn
	LogLevelInfo  = rag.LogLevelInfo
	LogLevelDebug = rag.LogLevelDebug
)

// Logger emits leveled key-value messages. The ingestion and retrieval
// pipelines log through the package-wide instance.
type Logger = rag.Logger

// SetLogLevel adjusts the package-wide log verbosity. The default is
// LogLevelInfo; the CLI maps its -log-level flag here.
func SetLogLevel(level LogLevel) {
	rag.SetGlobalLogLevel(level)
}

// Debug logs at debug level through the package-wide logger.
func Debug(msg string, keysAndValues ...interface{}) {
	rag.GlobalLogger.Debug(msg, keysAndValues...)
}

// Info logs at info level through the package-wide logger.
func Info(msg string, keysAndValues ...interface{}) {
	rag.GlobalLogger.Info(msg, keysAndValues...)
}

// Warn logs at warn level through the package-wide logger.
func Warn(msg string, keysAndValues ...interface{}) {
	rag.GlobalLogger.Warn(msg, keysAndValues...)
}

// Error logs at error level through the package-wide logger.
func Error(msg string, keysAndValues ...interface{}) {
	rag.GlobalLogger.Error(msg, keysAndValues...)
}
