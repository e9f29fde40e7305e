package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bfgengine/lanecore/internal/config"
)

func TestNewWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	logger, err := New(config.LoggingConfig{
		Level:      "debug",
		Path:       path,
		MaxSizeMB:  1,
		MaxBackups: 2,
		MaxAgeDays: 1,
		Compress:   true,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("lane started", String("lane", "physics"), Int("hz", 60))
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if line == "" {
		t.Fatal("expected at least one log line written")
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.Split(line, "\n")[0]), &record); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if record["message"] != "lane started" {
		t.Fatalf("unexpected message field: %#v", record["message"])
	}
	if record["lane"] != "physics" {
		t.Fatalf("unexpected lane field: %#v", record["lane"])
	}
	if record["service"] != "lanecore" {
		t.Fatalf("unexpected service field: %#v", record["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	logger, err := New(config.LoggingConfig{
		Level:      "warn",
		Path:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("should be dropped")
	logger.Info("should also be dropped")
	logger.Warn("should be kept")
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one retained line, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "should be kept") {
		t.Fatalf("expected retained line to be the warn message, got %q", lines[0])
	}
}

func TestWithClonesAndMergesFields(t *testing.T) {
	base := NewTestLogger().With(String("lane", "view"))
	derived := base.With(Int("tick", 3))

	if base.fields["tick"] != nil {
		t.Fatal("With must not mutate the parent logger's fields")
	}
	if derived.fields["lane"] != "view" {
		t.Fatalf("expected derived logger to inherit parent fields, got %#v", derived.fields)
	}
	if derived.fields["tick"] != 3 {
		t.Fatalf("expected derived logger to carry its own field, got %#v", derived.fields)
	}
}

func TestNewRejectsEmptyPath(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "info"}); err == nil {
		t.Fatal("expected error for empty logging path")
	}
}

func TestLoggerFromContextFallsBackToGlobal(t *testing.T) {
	logger := LoggerFromContext(nil)
	if logger == nil {
		t.Fatal("expected a non-nil fallback logger")
	}
}
