package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundunpack/internal/config"
	"soundunpack/internal/logging"
	"soundunpack/internal/services"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()

	logger, err := logging.NewFromConfig(&cfg, "")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Debug("debug message")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content := readFile(t, logPath)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(content, "INFO") || !strings.Contains(content, "message without caller") {
		t.Fatalf("expected level and message in output, got %q", content)
	}
}

func TestConsoleLoggerRendersSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-subject.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStage(context.Background(), "extract")
	ctx = services.WithArchive(ctx, "NMSARC.515F1D3.pak")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "archive"))
	logger.Info("extracting archive", logging.Int("entries", 42))

	content := readFile(t, logPath)
	for _, want := range []string{"[archive]", "extract · NMSARC.515F1D3.pak", "entries=42"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in output, got %q", want, content)
		}
	}
	if strings.Contains(content, "component=") {
		t.Fatalf("component should render as subject, got %q", content)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-1")
	logging.WithContext(ctx, logger).Debug("hello")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readFile(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["msg"] != "hello" {
		t.Fatalf("msg = %v, want hello", payload["msg"])
	}
	if payload[logging.FieldRunID] != "run-1" {
		t.Fatalf("run_id = %v, want run-1", payload[logging.FieldRunID])
	}
	if payload["level"] != "debug" {
		t.Fatalf("level = %v, want debug", payload["level"])
	}
}

func TestFilePathReceivesJSONCopy(t *testing.T) {
	dir := t.TempDir()
	consolePath := filepath.Join(dir, "console.log")
	filePath := filepath.Join(dir, "nested", "run.jsonl")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{consolePath},
		FilePath:    filePath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("converted", logging.Int("files", 3))

	if !strings.Contains(readFile(t, consolePath), "converted") {
		t.Fatal("expected console output")
	}
	jsonLine := strings.TrimSpace(readFile(t, filePath))
	if !strings.HasPrefix(jsonLine, "{") || !strings.Contains(jsonLine, `"files":3`) {
		t.Fatalf("expected json copy, got %q", jsonLine)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.jsonl")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "metadata missing", "metadata_missing", logging.String(logging.FieldErrorHint, "re-extract"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readFile(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "metadata_missing" {
		t.Fatalf("event_type = %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] != "re-extract" {
		t.Fatalf("error_hint = %v, want caller value", payload[logging.FieldErrorHint])
	}
	if impact, _ := payload[logging.FieldImpact].(string); impact == "" {
		t.Fatalf("expected default impact, got %v", payload)
	}
}

func TestErrorWithContextKeepsCallerEventType(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error.jsonl")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.ErrorWithContext(logger, "run failed", "run_failed", logging.String(logging.FieldEventType, "listing_failed"))

	out := readFile(t, logPath)
	if strings.Count(out, `"event_type"`) != 1 || !strings.Contains(out, `"event_type":"listing_failed"`) {
		t.Fatalf("expected single caller event_type, got %q", out)
	}
	if !strings.Contains(out, `"error_hint"`) {
		t.Fatalf("expected default error_hint, got %q", out)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
