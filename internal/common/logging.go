package common

import (
	"io"
	"log"
	"os"
)

// NewLogger returns the process logger. Stage messages are only written when verbose is set;
// warnings go through Warnf and are always written.
func NewLogger(verbose bool) *Logger {
	return &Logger{
		Logger:  log.New(os.Stderr, "ragmail: ", log.LstdFlags|log.LUTC),
		verbose: verbose,
	}
}

// NewDiscardLogger is used by tests and library callers that want silence.
func NewDiscardLogger() *Logger {
	return &Logger{Logger: log.New(io.Discard, "", 0)}
}

// NewWriterLogger logs everything to w without timestamps.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{Logger: log.New(w, "", 0), verbose: true}
}

type Logger struct {
	*log.Logger
	verbose bool
}

// Debugf logs only in verbose mode.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	l.Printf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.Printf("warning: "+format, args...)
}
