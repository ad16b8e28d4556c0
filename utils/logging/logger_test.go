package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestContextFields(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")
	ctx := NewContext(context.Background(), "run_id", "r1")
	WithFields(ctx, "chunk", 2).Info("chunk finished")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"r1"`) || !strings.Contains(out, `"chunk":2`) {
		t.Fatalf("missing fields in %s", out)
	}
	WithFields(ctx).Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug entry written at info level")
	}
}
