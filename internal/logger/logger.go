// Package logger provides verbose logging for the ocrchat CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to show channel, reconnect and session activity.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(level, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, level+prefix+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf("[DEBUG] ", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf("[INFO] ", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf("[WARN] ", "", format, args...)
}

// Logger prefixes every message with a fixed set of key=value fields.
// It shares the package-level verbosity and output.
type Logger struct {
	prefix string
}

// With returns a scoped logger carrying key=value.
func With(key, value string) *Logger {
	return (&Logger{}).With(key, value)
}

// With returns a copy of l with an additional key=value field.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{prefix: l.prefix + key + "=" + value + " "}
}

// Debug prints a scoped message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	logf("[DEBUG] ", l.prefix, format, args...)
}

// Info prints a scoped message if verbose mode is enabled.
func (l *Logger) Info(format string, args ...any) {
	logf("[INFO] ", l.prefix, format, args...)
}

// Warn prints a scoped message if verbose mode is enabled.
func (l *Logger) Warn(format string, args ...any) {
	logf("[WARN] ", l.prefix, format, args...)
}
