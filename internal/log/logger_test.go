package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Level: slog.LevelInfo, Output: &buf, Component: ComponentHTTP})

	logger.WithComponent(ComponentStorage).Info("saved", FieldCostID, 7)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentStorage {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentStorage)
	}
	if rec[FieldCostID] != float64(7) {
		t.Errorf("cost_id = %v, want 7", rec[FieldCostID])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTintHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "tint", Level: slog.LevelInfo, Output: &buf})
	logger.Info("hola")
	if !strings.Contains(buf.String(), "hola") {
		t.Fatalf("tint output missing message: %q", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})
	ctx := NewContext(context.Background(), base.With(FieldRequestID, "req_123"))

	FromContext(ctx).InfoContext(ctx, "inside")

	if !strings.Contains(buf.String(), `"request_id":"req_123"`) {
		t.Fatalf("request id not propagated: %s", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ErrorTypeDatabase, OpBulkUpdate, nil)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec[FieldError] != "disk full" || rec[FieldErrorType] != ErrorTypeDatabase || rec[FieldOperation] != OpBulkUpdate {
		t.Fatalf("unexpected record %v", rec)
	}
}
