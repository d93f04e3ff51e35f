package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("with default output", func(t *testing.T) {
		logger := NewLogger(Config{Level: InfoLevel})
		if logger == nil {
			t.Fatal("NewLogger returned nil")
		}
	})

	t.Run("with custom output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger(Config{Level: InfoLevel, Output: buf})
		if logger.writer != buf {
			t.Error("Logger should use provided output writer")
		}
	})
}

func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		configLvl LogLevel
		logLvl    LogLevel
		shouldLog bool
	}{
		{"debug logs debug", DebugLevel, DebugLevel, true},
		{"info skips debug", InfoLevel, DebugLevel, false},
		{"info logs warn", InfoLevel, WarnLevel, true},
		{"warn skips info", WarnLevel, InfoLevel, false},
		{"error skips warn", ErrorLevel, WarnLevel, false},
		{"error logs error", ErrorLevel, ErrorLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLogger(Config{Level: tt.configLvl, Output: buf})

			logger.log(tt.logLvl, "test message", nil)

			hasOutput := buf.Len() > 0
			if hasOutput != tt.shouldLog {
				t.Errorf("shouldLog = %v, but hasOutput = %v", tt.shouldLog, hasOutput)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(Config{Format: JSONFormat, Level: InfoLevel, Output: buf})

	logger.Info("refresh complete", map[string]interface{}{"categories": 12})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["message"] != "refresh complete" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestHumanFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(Config{Format: HumanFormat, Level: InfoLevel, Output: buf})

	logger.Warn("using stale data", map[string]interface{}{"path": "/tmp/malapi.db"})

	out := buf.String()
	if !strings.Contains(out, "[warn]") || !strings.Contains(out, "using stale data") {
		t.Errorf("unexpected human output: %q", out)
	}
	if !strings.Contains(out, "path=/tmp/malapi.db") {
		t.Errorf("fields missing from human output: %q", out)
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(Config{Format: JSONFormat, Level: InfoLevel, Output: buf})
	logger := base.With(map[string]interface{}{"scan_id": "abc123"})

	logger.Info("hello", map[string]interface{}{"extra": 1})

	var entry struct {
		Fields map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Fields["scan_id"] != "abc123" {
		t.Errorf("scan_id = %v", entry.Fields["scan_id"])
	}
	if entry.Fields["extra"] != float64(1) {
		t.Errorf("extra = %v", entry.Fields["extra"])
	}

	// The base logger must not inherit the attached fields
	buf.Reset()
	base.Info("plain", nil)
	if strings.Contains(buf.String(), "scan_id") {
		t.Error("With leaked fields into the base logger")
	}
}
