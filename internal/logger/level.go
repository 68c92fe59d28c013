// Package logger provides logging implementations for fileslice.
//
// Loggers record general messages at five levels (trace, debug, info, warn,
// error) and the cursor's navigation events: listings, unresolved fragments
// and access denials. Implementations are thread-safe and write to the
// console, to an append-only log file, or to several sinks at once.
package logger

import "strings"

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is implemented by every sink in this package.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	// LogListing records a successful listing at INFO level.
	LogListing(position string, count int)
	// LogNotFound records a fragment that resolved to nothing at DEBUG level.
	LogNotFound(fragment string)
	// LogDenied records an access denial at WARN level.
	LogDenied(fragment, path string)
}

// ValidLevel reports whether level names a known log level (case-insensitive).
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if ValidLevel(normalized) {
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog reports whether a message at messageLevel passes configured.
func shouldLog(configured, messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(configured)
}

// MultiLogger fans every message out to several loggers.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers. Nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) LogTrace(message string) {
	for _, l := range m.loggers {
		l.LogTrace(message)
	}
}

func (m *MultiLogger) LogDebug(message string) {
	for _, l := range m.loggers {
		l.LogDebug(message)
	}
}

func (m *MultiLogger) LogInfo(message string) {
	for _, l := range m.loggers {
		l.LogInfo(message)
	}
}

func (m *MultiLogger) LogWarn(message string) {
	for _, l := range m.loggers {
		l.LogWarn(message)
	}
}

func (m *MultiLogger) LogError(message string) {
	for _, l := range m.loggers {
		l.LogError(message)
	}
}

func (m *MultiLogger) LogListing(position string, count int) {
	for _, l := range m.loggers {
		l.LogListing(position, count)
	}
}

func (m *MultiLogger) LogNotFound(fragment string) {
	for _, l := range m.loggers {
		l.LogNotFound(fragment)
	}
}

func (m *MultiLogger) LogDenied(fragment, path string) {
	for _, l := range m.loggers {
		l.LogDenied(fragment, path)
	}
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string)          {}
func (n *NoOpLogger) LogDebug(string)          {}
func (n *NoOpLogger) LogInfo(string)           {}
func (n *NoOpLogger) LogWarn(string)           {}
func (n *NoOpLogger) LogError(string)          {}
func (n *NoOpLogger) LogListing(string, int)   {}
func (n *NoOpLogger) LogNotFound(string)       {}
func (n *NoOpLogger) LogDenied(string, string) {}
