package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})

	logger.Info("athlete lookup", "athlete_id", "atleta_01")

	out := buf.String()
	if !strings.Contains(out, "athlete lookup") {
		t.Errorf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "athlete_id=atleta_01") {
		t.Errorf("expected key-value pair in output, got: %s", out)
	}
}

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{JSON: true})

	logger.Info("retrieval done", "passages", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "retrieval done" {
		t.Errorf("msg = %v, want %q", entry["msg"], "retrieval done")
	}
	if entry["passages"] != float64(3) {
		t.Errorf("passages = %v, want 3", entry["passages"])
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

	logger.Debug("should be filtered")
	logger.Info("should be filtered too")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Errorf("lower-level entries leaked through: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn entry missing: %s", out)
	}
}

func TestNewNop_DiscardsOutput(t *testing.T) {
	logger := NewNop()
	// Must not panic, output goes nowhere.
	logger.Error("discarded", "key", "value")
}
