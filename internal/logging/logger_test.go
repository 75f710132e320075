package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captionrelay/internal/logging"
	"captionrelay/internal/services"
)

func TestNewWritesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "captionrelay.log")

	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("debug message")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "debug message") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "INFO") {
		t.Fatalf("expected level label, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerRendersComponentAndSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "1a2b3c4d-0000-0000-0000-000000000000")
	ctx = services.WithVideoID(ctx, "abc123")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "transcript"))
	logger.Info("transcript ready", logging.Int("chars", 42))

	line := buf.String()
	for _, want := range []string{"[transcript]", "req 1a2b3c4d", "video abc123", "transcript ready", "chars=42"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "request_id=") {
		t.Fatalf("request id should be folded into the header, got %q", line)
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("json message", logging.String(logging.FieldEndpoint, "https://mirror.example"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["msg"] != "json message" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload[logging.FieldEndpoint] != "https://mirror.example" {
		t.Fatalf("unexpected endpoint: %v", payload[logging.FieldEndpoint])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "verbose", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug output should be filtered at info level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected info output, got %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "endpoint failed", "endpoint_failed",
		logging.String(logging.FieldImpact, "falling back to next endpoint"),
		logging.Error(errors.New("boom")),
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "endpoint_failed" {
		t.Fatalf("unexpected event type: %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if payload[logging.FieldImpact] != "falling back to next endpoint" {
		t.Fatalf("caller impact should win, got %v", payload[logging.FieldImpact])
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-1")
	ctx = services.WithVideoID(ctx, "vid-9")
	logging.WithContext(ctx, logger).Info("hello")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldRequestID] != "req-1" {
		t.Fatalf("missing request id: %v", payload)
	}
	if payload[logging.FieldVideoID] != "vid-9" {
		t.Fatalf("missing video id: %v", payload)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 100) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "noop")
}

func TestEndpointAttrsSkipsEmptyValues(t *testing.T) {
	attrs := logging.EndpointAttrs("https://m.example", "piped", "")
	if len(attrs) != 2 {
		t.Fatalf("expected endpoint and provider only, got %v", attrs)
	}
	if !logging.HasAttrKey(attrs, logging.FieldEndpoint) || logging.HasAttrKey(attrs, "kind") {
		t.Fatalf("unexpected attrs %v", attrs)
	}
}
