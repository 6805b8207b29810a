package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if id == "" {
			t.Fatal("GenerateID() returned empty string")
		}
		if seen[id] {
			t.Fatalf("GenerateID() returned duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("expected log output to contain message, got %q", out)
	}
	if !strings.Contains(out, "value") {
		t.Errorf("expected log output to contain key-value pair, got %q", out)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	logger, f, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	logger.Info("written to file")
	if err := f.Close(); err != nil {
		t.Fatalf("closing log file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("expected log file to contain message, got %q", string(data))
	}
}

func TestMarshalJSON(t *testing.T) {
	payload := map[string]int{"count": 3}

	compact, err := MarshalJSON(payload, false)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(compact) != `{"count":3}` {
		t.Errorf("MarshalJSON() compact = %s", compact)
	}

	pretty, err := MarshalJSON(payload, true)
	if err != nil {
		t.Fatalf("MarshalJSON() pretty error = %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("MarshalJSON() pretty output should be indented, got %s", pretty)
	}
}

func TestValidateJSON(t *testing.T) {
	if err := ValidateJSON([]byte(`{"ok": true}`)); err != nil {
		t.Errorf("ValidateJSON() valid input error = %v", err)
	}

	if err := ValidateJSON([]byte(`{"ok":`)); err == nil {
		t.Error("ValidateJSON() expected error for malformed input")
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{225, "3:45"},
		{3600, "60:00"},
		{-5, "0:00"},
	}

	for _, tt := range tc {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
