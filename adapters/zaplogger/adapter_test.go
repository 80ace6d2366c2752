package zaplogger

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-linebot/core"
)

func newObserved() (*zap.Logger, *observer.ObservedLogs) {
	zapCore, logs := observer.New(zapcore.DebugLevel)
	return zap.New(zapCore), logs
}

func TestLogger_LevelsAndArgs(t *testing.T) {
	base, logs := newObserved()
	logger := New(base)

	logger.Trace("trace", "k", 1)
	logger.Info("hello", "user_id", "U1")
	logger.Warn("careful")
	logger.Error("broken", "attempt", 2)

	entries := logs.AllUntimed()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Fatalf("expected trace to log at debug, got %s", entries[0].Level)
	}
	if entries[1].Message != "hello" || entries[1].ContextMap()["user_id"] != "U1" {
		t.Fatalf("unexpected info entry %+v", entries[1])
	}
	if entries[3].Level != zapcore.ErrorLevel || entries[3].ContextMap()["attempt"] != int64(2) {
		t.Fatalf("unexpected error entry %+v", entries[3])
	}
}

func TestLogger_WithFields(t *testing.T) {
	base, logs := newObserved()
	child := New(base).WithFields(map[string]any{
		"event_type": "message",
		"error":      errors.New("boom"),
	})
	child.Info("routed")

	entries := logs.AllUntimed()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != "message" || fields["error"] != "boom" {
		t.Fatalf("unexpected fields %#v", fields)
	}
}

func TestProvider_NamesLoggers(t *testing.T) {
	base, logs := newObserved()
	NewProvider(base).GetLogger("linebot").Info("ready")

	entries := logs.AllUntimed()
	if len(entries) != 1 || entries[0].LoggerName != "linebot" {
		t.Fatalf("expected named logger entry, got %+v", entries)
	}
}

func TestLogger_ServesObserver(t *testing.T) {
	base, logs := newObserved()
	obs := core.NewObserver("linebot", NewProvider(base), nil, nil)

	obs.Observe(context.Background(), time.Now(), "webhook", errors.New("bad body"), map[string]any{
		"request_id": "req-1",
	})

	entries := logs.FilterMessage("webhook failed").AllUntimed()
	if len(entries) != 1 {
		t.Fatalf("expected one failure entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" || fields["status"] != "failure" {
		t.Fatalf("unexpected observer fields %#v", fields)
	}
	if entries[0].LoggerName != "linebot" {
		t.Fatalf("expected provider name, got %q", entries[0].LoggerName)
	}
}

func TestNew_NilUsesNop(t *testing.T) {
	New(nil).Info("dropped")
	NewProvider(nil).GetLogger("x").Info("dropped")
}
