package server

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLoggerPromotesRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{output: &buf, minLevel: LogLevelInfo, enableJSON: true}

	l.Info("file_committed", map[string]any{
		"request_id": "req-123",
		"id":         int64(7),
	})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.RequestID != "req-123" {
		t.Errorf("expected request_id req-123, got %q", entry.RequestID)
	}
	if _, ok := entry.Fields["request_id"]; ok {
		t.Error("request_id must not be duplicated inside fields")
	}
}

func TestLoggerDoesNotMutateCallerFields(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{output: &buf, minLevel: LogLevelInfo, enableJSON: true}

	fields := map[string]any{
		"request_id": "req-123",
		"strategy":   "archive",
	}
	l.Info("strategy_selected", fields)

	if _, ok := fields["request_id"]; !ok {
		t.Error("logging must not remove keys from the caller's map")
	}
	if len(fields) != 2 {
		t.Errorf("caller's map changed size: %v", fields)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{output: &buf, minLevel: LogLevelWarn, enableJSON: true}

	l.Info("ignored", nil)
	if buf.Len() != 0 {
		t.Errorf("info must be filtered below the warn threshold: %s", buf.String())
	}

	l.Warn("kept", nil)
	if buf.Len() == 0 {
		t.Error("warn must pass the warn threshold")
	}
}
