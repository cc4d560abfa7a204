package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func capture() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:     slog.LevelDebug,
		Component: ComponentApp,
		Handler:   slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	return logger, &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestComponentField(t *testing.T) {
	logger, buf := capture()

	logger.Info("hello", "key", "value")

	entry := lastLine(t, buf)
	if entry[FieldComponent] != ComponentApp {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentApp)
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestWithComponent(t *testing.T) {
	logger, buf := capture()

	logger.WithComponent(ComponentWorker).Warn("draining")

	entry := lastLine(t, buf)
	if entry[FieldComponent] != ComponentWorker {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentWorker)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
}

func TestWithKeepsComponent(t *testing.T) {
	logger, buf := capture()

	logger.With("request", "abc").Error("boom")

	entry := lastLine(t, buf)
	if entry[FieldComponent] != ComponentApp {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentApp)
	}
	if entry["request"] != "abc" {
		t.Errorf("request = %v, want abc", entry["request"])
	}
}
