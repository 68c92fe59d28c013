package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/fileslice/internal/filelock"
)

// LogFileName is the append-only log written inside the log directory.
const LogFileName = "fileslice.log"

// FileLogger appends log lines to <logDir>/fileslice.log.
// Every write holds a file lock so concurrent fileslice processes never
// interleave partial lines. Each line carries the session tag so runs can be
// told apart.
type FileLogger struct {
	path     string
	tag      string
	logLevel string
}

// NewFileLogger creates the log directory and returns a logger writing to it.
// tag identifies the writer (usually the session ID) and may be empty.
func NewFileLogger(logDir, logLevel, tag string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &FileLogger{
		path:     filepath.Join(logDir, LogFileName),
		tag:      tag,
		logLevel: normalizeLogLevel(logLevel),
	}, nil
}

// Path returns the log file path.
func (fl *FileLogger) Path() string {
	return fl.path
}

func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) LogListing(position string, count int) {
	fl.logWithLevel("INFO", fmt.Sprintf("listed %d entries in %s", count, position))
}

func (fl *FileLogger) LogNotFound(fragment string) {
	fl.logWithLevel("DEBUG", fmt.Sprintf("no path found for %q", fragment))
}

// LogDenied records an access denial at WARN level.
func (fl *FileLogger) LogDenied(fragment, path string) {
	fl.logWithLevel("WARN", fmt.Sprintf("access denied for %q: %s is outside root", fragment, path))
}

func (fl *FileLogger) logWithLevel(level, message string) {
	if !shouldLog(fl.logLevel, strings.ToLower(level)) {
		return
	}

	var line string
	if fl.tag != "" {
		line = fmt.Sprintf("%s [%s] [%s] %s\n", time.Now().Format(time.RFC3339), level, fl.tag, message)
	} else {
		line = fmt.Sprintf("%s [%s] %s\n", time.Now().Format(time.RFC3339), level, message)
	}

	// Logging must never fail the caller; a lost line is reported on stderr.
	if err := filelock.LockAndAppend(fl.path, []byte(line)); err != nil {
		fmt.Fprintf(os.Stderr, "fileslice: write log: %v\n", err)
	}
}
