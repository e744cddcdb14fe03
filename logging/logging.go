// Package logging provides structured logging for WAMP connections and the
// transport server, with an optional NATS side-channel for
// real-time log streaming to external consumers.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is a structured log record, published to NATS (if enabled) as JSON.
type Entry struct {
	Timestamp string `json:"timestamp"` // RFC3339Nano
	Level     Level  `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
	Stack     string `json:"stack,omitempty"`
}

// Logger wraps a *slog.Logger for local logging and optionally publishes
// each entry to a NATS subject of the form "logs.<component>" for remote
// observability. The NATS side-channel is best-effort: a publish failure
// or absent connection never prevents the local log from being written.
type Logger struct {
	component string
	nc        *nats.Conn
	logger    *slog.Logger
	enabled   bool
}

// New creates a Logger for the given component name. nc may be nil to
// disable the NATS side-channel.
func New(component string, nc *nats.Conn, logger *slog.Logger) *Logger {
	return &Logger{
		component: component,
		nc:        nc,
		logger:    logger,
		enabled:   nc != nil,
	}
}

func (l *Logger) Debug(msg string) { l.DebugContext(context.Background(), msg) }
func (l *Logger) Info(msg string)  { l.InfoContext(context.Background(), msg) }
func (l *Logger) Warn(msg string)  { l.WarnContext(context.Background(), msg) }
func (l *Logger) Error(msg string, err error) { l.ErrorContext(context.Background(), msg, err) }

func (l *Logger) DebugContext(ctx context.Context, msg string) {
	l.publish(ctx, LevelDebug, msg, "")
	if l.logger != nil {
		l.logger.Debug(msg, "component", l.component)
	}
}

func (l *Logger) InfoContext(ctx context.Context, msg string) {
	l.publish(ctx, LevelInfo, msg, "")
	if l.logger != nil {
		l.logger.Info(msg, "component", l.component)
	}
}

func (l *Logger) WarnContext(ctx context.Context, msg string) {
	l.publish(ctx, LevelWarn, msg, "")
	if l.logger != nil {
		l.logger.Warn(msg, "component", l.component)
	}
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, err error) {
	stack := ""
	if err != nil {
		stack = fmt.Sprintf("%+v", err)
	}
	l.publish(ctx, LevelError, msg, stack)
	if l.logger != nil {
		l.logger.Error(msg, "component", l.component, "error", err)
	}
}

// publish sends the entry to the NATS side-channel, if enabled.
func (l *Logger) publish(ctx context.Context, level Level, message, stack string) {
	if !l.enabled {
		return
	}
	select {
	case <-ctx.Done():
		return
	default:
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Component: l.component,
		Message:   message,
		Stack:     stack,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		if l.logger != nil {
			l.logger.Error("failed to marshal log entry", "error", err)
		}
		return
	}

	// Re-check nc before publishing; a nil connection skips the publish.
	nc := l.nc
	if nc == nil {
		return
	}
	select {
	case <-ctx.Done():
		return
	default:
	}

	subject := fmt.Sprintf("logs.%s", l.component)
	if err := nc.Publish(subject, data); err != nil {
		if l.logger != nil {
			l.logger.Error("failed to publish log entry", "error", err, "subject", subject)
		}
	}
}
