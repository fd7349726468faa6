// Package logger provides the level-filtered logger used throughout syncwave.
// It wraps the standard `log` package; every message is prefixed with its level,
// and attempt-scoped loggers additionally carry the job and attempt identifiers.
package logger

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// LogLevel is a type representing the logging level.
type LogLevel int32

const (
	// LevelDebug is used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is used for general informational messages.
	LevelInfo
	// LevelWarn is used for potential issues.
	LevelWarn
	// LevelError is used for error messages.
	LevelError
	// LevelFatal is used for messages that terminate the process.
	LevelFatal
)

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

// logLevel holds the current global level. Heartbeat goroutines log concurrently
// with configuration reloads, so it is accessed atomically.
var logLevel atomic.Int32

func init() {
	logLevel.Store(int32(LevelInfo))
}

// ParseLevel converts a level name (case-insensitive) to a LogLevel.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "TRACE":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// SetLogLevel sets the global log level.
// Valid values are "DEBUG", "INFO", "WARN", "ERROR", "FATAL" (case-insensitive).
// Unknown values fall back to INFO and a warning is emitted.
func SetLogLevel(level string) {
	lvl, err := ParseLevel(level)
	if err != nil {
		log.Printf("[WARN] %v. Defaulting to INFO level.", err)
	}
	logLevel.Store(int32(lvl))
}

// CurrentLevel returns the global log level.
func CurrentLevel() LogLevel {
	return LogLevel(logLevel.Load())
}

func enabled(l LogLevel) bool {
	return LogLevel(logLevel.Load()) <= l
}

func output(l LogLevel, prefix, format string, v ...interface{}) {
	if !enabled(l) {
		return
	}
	log.Printf("["+l.String()+"] "+prefix+format, v...)
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) { output(LevelDebug, "", format, v...) }

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) { output(LevelInfo, "", format, v...) }

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) { output(LevelWarn, "", format, v...) }

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) { output(LevelError, "", format, v...) }

// Fatalf outputs a FATAL level log message and terminates the program with os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}

// AttemptLogger prefixes every message with the job and attempt it belongs to,
// so interleaved output from concurrent attempts stays attributable.
type AttemptLogger struct {
	prefix string
}

// ForAttempt returns a logger scoped to one job attempt.
func ForAttempt(jobID string, attemptID int) *AttemptLogger {
	return &AttemptLogger{prefix: fmt.Sprintf("job=%s attempt=%d ", jobID, attemptID)}
}

// Debugf outputs a DEBUG message scoped to the attempt.
func (l *AttemptLogger) Debugf(format string, v ...interface{}) {
	output(LevelDebug, l.prefix, format, v...)
}

// Infof outputs an INFO message scoped to the attempt.
func (l *AttemptLogger) Infof(format string, v ...interface{}) {
	output(LevelInfo, l.prefix, format, v...)
}

// Warnf outputs a WARN message scoped to the attempt.
func (l *AttemptLogger) Warnf(format string, v ...interface{}) {
	output(LevelWarn, l.prefix, format, v...)
}

// Errorf outputs an ERROR message scoped to the attempt.
func (l *AttemptLogger) Errorf(format string, v ...interface{}) {
	output(LevelError, l.prefix, format, v...)
}
