package logging

import (
	"log"
	"os"
)

var debugEnabled = os.Getenv("MYDAY_DEBUG") == "true"

// SetDebug turns debug output on or off (config file / --debug flag)
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

// Info logs an informational message (always shown)
func Info(subsystem, format string, args ...any) {
	log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
}

// Warn logs a recoverable problem
func Warn(subsystem, format string, args ...any) {
	log.Printf("[%s] warning: "+format, append([]any{subsystem}, args...)...)
}

// Debug logs a debug message (only shown if debug is enabled)
func Debug(subsystem, format string, args ...any) {
	if debugEnabled {
		log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
	}
}
