// ABOUTME: Fan-out logger that forwards every event to several loggers
// ABOUTME: Used to send failures to both the structured log and Sentry

package multi

import "refcounter-api/core/interfaces"

// Logger forwards each event to all wrapped loggers in order
type Logger struct {
	loggers []interfaces.Logger
}

// NewLogger creates a fan-out logger; nil loggers are skipped
func NewLogger(loggers ...interfaces.Logger) *Logger {
	l := &Logger{}
	for _, logger := range loggers {
		if logger != nil {
			l.loggers = append(l.loggers, logger)
		}
	}
	return l
}

// Debug forwards a debug event to every logger
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	for _, logger := range l.loggers {
		logger.Debug(msg, fields)
	}
}

// Info forwards an info event to every logger
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	for _, logger := range l.loggers {
		logger.Info(msg, fields)
	}
}

// Warn forwards a warning event to every logger
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	for _, logger := range l.loggers {
		logger.Warn(msg, fields)
	}
}

// Error forwards an error event to every logger
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	for _, logger := range l.loggers {
		logger.Error(msg, fields)
	}
}
