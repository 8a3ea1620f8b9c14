package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/vexscript/botchat/internal/config"
	"github.com/vexscript/botchat/internal/dispatch"
)

func TestNewLogger_LevelMapping(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"info":  slog.LevelInfo,
	}
	ctx := context.Background()
	for level, want := range cases {
		logger := newLogger(level)
		if !logger.Handler().Enabled(ctx, want) {
			t.Errorf("level %q: handler not enabled for its own configured level %v", level, want)
		}
		if want != slog.LevelDebug && logger.Handler().Enabled(ctx, want-1) {
			t.Errorf("level %q: handler unexpectedly enabled one level below %v", level, want)
		}
	}
}

func TestBuildDispatchSink_DefaultsToConsole(t *testing.T) {
	sink, closeFn, err := buildDispatchSink(config.DispatchConfig{})
	if err != nil {
		t.Fatalf("buildDispatchSink: %v", err)
	}
	defer closeFn()
	if _, ok := sink.(*dispatch.ConsoleSink); !ok {
		t.Fatalf("sink = %T, want *dispatch.ConsoleSink", sink)
	}
}

func TestBuildAuditLog_EmptyDSNDisables(t *testing.T) {
	log, err := buildAuditLog(context.Background(), config.ChatLogConfig{})
	if err != nil {
		t.Fatalf("buildAuditLog: %v", err)
	}
	if log != nil {
		t.Fatal("expected a nil audit log when no DSN is configured")
	}
}
