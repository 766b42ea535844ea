package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/bilisentiment/logger"
)

// LoggerInterface defines the interface for diagnostic logger implementations
type LoggerInterface interface {
	LogError(unit string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger appends recovered unit failures to a diagnostics file
type Logger struct {
	mu        sync.Mutex
	errorFile string
}

// NewLogger creates a new logger instance
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
	}
}

// LogError logs an error to a file with the unit name and timestamp
func (l *Logger) LogError(unit string, err error) {
	if l.errorFile == "" || err == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.Warn("failed to open diagnostics file %s: %v", l.errorFile, fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, unit, err.Error())
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}
