package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		format string
	}{
		{name: "json format with info level", level: slog.LevelInfo, format: "json"},
		{name: "text format with debug level", level: slog.LevelDebug, format: "text"},
		{name: "default format (text) with error level", level: slog.LevelError, format: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.level, tt.format)
			if logger == nil || logger.Logger == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}

func TestNew_JSONWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "json")

	logger.Info("hello", "k", "v")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg %q, got %v", "hello", entry["msg"])
	}
	if entry["k"] != "v" {
		t.Errorf("expected k=v, got %v", entry["k"])
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, "text")

	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Errorf("info line should be filtered at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn line missing: %s", buf.String())
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	tests := []struct {
		name        string
		ctx         context.Context
		expectRunID bool
	}{
		{
			name:        "context with run ID",
			ctx:         ContextWithRunID(context.Background(), "run-123"),
			expectRunID: true,
		},
		{
			name:        "context without run ID",
			ctx:         context.Background(),
			expectRunID: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			logger.InfoContext(tt.ctx, "test message")

			hasRunID := strings.Contains(buf.String(), `"run_id":"run-123"`)
			if hasRunID != tt.expectRunID {
				t.Errorf("run_id present = %v, want %v; output: %s", hasRunID, tt.expectRunID, buf.String())
			}
		})
	}
}

func TestLevelContextMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	ctx := context.Background()

	logger.DebugContext(ctx, "d")
	logger.WarnContext(ctx, "w")
	logger.ErrorContext(ctx, "e")

	out := buf.String()
	for _, lvl := range []string{"DEBUG", "WARN", "ERROR"} {
		if !strings.Contains(out, lvl) {
			t.Errorf("expected %s in output, got: %s", lvl, out)
		}
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	logger.With("tool", "bp-getchanges").Info("test message")

	if !strings.Contains(buf.String(), "bp-getchanges") {
		t.Errorf("expected attribute in output, got: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
