package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	base := slog.New(slog.NewTextHandler(buf, nil))

	tests := []struct {
		name        string
		nc          *nats.Conn
		wantEnabled bool
	}{
		{name: "with NATS connection", nc: &nats.Conn{}, wantEnabled: true},
		{name: "without NATS connection", nc: nil, wantEnabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New("directory", tt.nc, base)
			if l.enabled != tt.wantEnabled {
				t.Errorf("enabled = %v, want %v", l.enabled, tt.wantEnabled)
			}
			if l.component != "directory" {
				t.Errorf("component = %q, want %q", l.component, "directory")
			}
		})
	}
}

func TestLogger_WritesThroughToSlog(t *testing.T) {
	buf := &bytes.Buffer{}
	base := slog.New(slog.NewTextHandler(buf, nil))
	l := New("wampnet", nil, base)

	l.Info("connection ready")
	if !bytes.Contains(buf.Bytes(), []byte("connection ready")) {
		t.Errorf("expected slog output to contain message, got: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("wampnet")) {
		t.Errorf("expected slog output to contain component name, got: %s", buf.String())
	}
}

func TestLogger_ErrorIncludesStack(t *testing.T) {
	buf := &bytes.Buffer{}
	base := slog.New(slog.NewTextHandler(buf, nil))
	l := New("registry", nil, base)

	l.Error("dispatch failed", errors.New("boom"))
	if !bytes.Contains(buf.Bytes(), []byte("boom")) {
		t.Errorf("expected slog output to contain wrapped error, got: %s", buf.String())
	}
}

func TestLogger_DisabledWithoutNATSIsNoop(t *testing.T) {
	l := New("directory", nil, nil)
	// Must not panic even with no slog.Logger and no NATS connection.
	l.InfoContext(context.Background(), "noop")
	l.publish(context.Background(), LevelInfo, "noop", "")
}

func TestLogger_CancelledContextSkipsPublish(t *testing.T) {
	l := &Logger{component: "directory", enabled: true, nc: &nats.Conn{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Should return immediately without attempting to use the (unconnected) nats.Conn.
	l.publish(ctx, LevelInfo, "skip me", "")
}
