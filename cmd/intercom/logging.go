package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tunaoezer/Intercom/config"
	"github.com/tunaoezer/Intercom/logging"
	"github.com/tunaoezer/Intercom/pkg/retry"
)

// newSlogLogger builds the process-wide *slog.Logger at the requested
// level, writing structured text to stderr.
func newSlogLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// connectNATS dials cfg.NATS.URL for the logging side-channel, retrying
// with backoff since the broker commonly starts after this process in a
// compose/k8s deployment. Returns nil, nil if no URL is configured.
func connectNATS(ctx context.Context, cfg config.NATSConfig) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	return retry.DoWithResult(ctx, retry.Config{
		MaxAttempts:  5,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}, func() (*nats.Conn, error) {
		nc, err := nats.Connect(cfg.URL, nats.Name("intercom"))
		if err != nil {
			return nil, fmt.Errorf("connect to nats at %s: %w", cfg.URL, err)
		}
		return nc, nil
	})
}

// newComponentLogger builds a logging.Logger for component, publishing to
// nc's "logs.<component>" subject if nc is non-nil.
func newComponentLogger(component string, nc *nats.Conn, sl *slog.Logger) *logging.Logger {
	return logging.New(component, nc, sl)
}
