// ABOUTME: Sentry-backed event sink for warning and error log events
// ABOUTME: Sends each event as a Sentry message carrying level and extra fields

package sentry

import (
	"time"

	sentrygo "github.com/getsentry/sentry-go"
)

// Logger forwards Warn and Error events to Sentry. Debug and Info events
// are dropped; pair it with a structured logger through multi.Logger.
type Logger struct {
	hub *sentrygo.Hub
}

// Config holds Sentry client settings
type Config struct {
	DSN         string
	Environment string
	Release     string

	// BeforeSend, when set, sees every event before it is sent
	BeforeSend func(event *sentrygo.Event, hint *sentrygo.EventHint) *sentrygo.Event
}

// NewLogger creates a Sentry sink with its own client and hub. An empty
// DSN yields a client that captures nothing.
func NewLogger(cfg Config) (*Logger, error) {
	client, err := sentrygo.NewClient(sentrygo.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		BeforeSend:  cfg.BeforeSend,
	})
	if err != nil {
		return nil, err
	}
	return &Logger{hub: sentrygo.NewHub(client, sentrygo.NewScope())}, nil
}

// NewFromHub wraps an existing hub
func NewFromHub(hub *sentrygo.Hub) *Logger {
	return &Logger{hub: hub}
}

// Debug is a no-op
func (l *Logger) Debug(msg string, fields map[string]interface{}) {}

// Info is a no-op
func (l *Logger) Info(msg string, fields map[string]interface{}) {}

// Warn captures a warning-level message
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.capture(sentrygo.LevelWarning, msg, fields)
}

// Error captures an error-level message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.capture(sentrygo.LevelError, msg, fields)
}

// Flush waits for buffered events to be delivered
func (l *Logger) Flush(timeout time.Duration) bool {
	return l.hub.Flush(timeout)
}

// capture sends one event from a clone of the hub so concurrent callers
// never share a scope stack
func (l *Logger) capture(level sentrygo.Level, msg string, fields map[string]interface{}) {
	hub := l.hub.Clone()
	hub.ConfigureScope(func(scope *sentrygo.Scope) {
		scope.SetLevel(level)
		for k, v := range fields {
			scope.SetExtra(k, v)
		}
	})
	hub.CaptureMessage(msg)
}
