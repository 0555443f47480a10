package logger

import (
	"fmt"
	"log"
	"os"
)

// Logger writes progress lines for long unattended runs.
type Logger struct {
	*log.Logger
	file *os.File
}

// NewFile creates a logger appending to the given file path, with
// microsecond timestamps for progress tracking.
func NewFile(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := &Logger{
		Logger: log.New(f, "", log.LstdFlags|log.Lmicroseconds),
		file:   f,
	}
	return l, nil
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
