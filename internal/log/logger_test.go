package log

import (
	"bytes"
	"encoding/json"
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
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWriterTextFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, &Config{Level: "info", Format: "text"})

	Info("hello", "key", "value")
	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "key=value") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestInitWriterJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, &Config{Level: "info", Format: "json"})

	Warn("disk almost full", "percent", 91)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "disk almost full" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["percent"] != float64(91) {
		t.Errorf("percent = %v", entry["percent"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, &Config{Level: "warn", Format: "text"})

	Debug("suppressed")
	Info("also suppressed")
	Error("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("low-level entries should be filtered: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("error entry missing: %s", out)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, &Config{Level: "info", Format: "text"})

	With("component", "realtime").Info("started")
	if !strings.Contains(buf.String(), "component=realtime") {
		t.Errorf("attribute missing: %s", buf.String())
	}
}
