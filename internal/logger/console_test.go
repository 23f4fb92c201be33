package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// TestNewConsoleLoggerNormalizesLevel verifies level normalization
func TestNewConsoleLoggerNormalizesLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  string
	}{
		{name: "valid lowercase", level: "debug", want: "debug"},
		{name: "valid uppercase", level: "WARN", want: "warn"},
		{name: "padded", level: "  info  ", want: "info"},
		{name: "empty defaults to info", level: "", want: "info"},
		{name: "invalid defaults to info", level: "loud", want: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := NewConsoleLogger(&bytes.Buffer{}, tt.level)
			if cl.logLevel != tt.want {
				t.Errorf("logLevel = %q, want %q", cl.logLevel, tt.want)
			}
		})
	}
}

// TestLevelFiltering verifies that messages below the configured level
// are suppressed
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "warn")

	cl.Debugf("hidden %d", 1)
	cl.Infof("hidden %d", 2)
	cl.Warnf("shown %d", 3)
	cl.Errorf("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains suppressed messages: %q", out)
	}
	if !strings.Contains(out, "shown 3") || !strings.Contains(out, "shown 4") {
		t.Errorf("output missing expected messages: %q", out)
	}
}

// TestLogFormat verifies the timestamp and level prefix
func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "trace")

	cl.Infof("walking %s", "foo")

	out := buf.String()
	if !strings.Contains(out, "[INFO] walking foo") {
		t.Errorf("output = %q, want level prefix and message", out)
	}
	if !strings.HasPrefix(out, "[") {
		t.Errorf("output = %q, want leading timestamp", out)
	}
}

// TestNilWriterDiscards verifies that a nil writer does not panic
func TestNilWriterDiscards(t *testing.T) {
	cl := NewConsoleLogger(nil, "info")
	cl.Infof("into the void")
	cl.LogSummary(Summary{Total: 1})
}

// TestLogSummary verifies the closing report
func TestLogSummary(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "error")

	cl.LogSummary(Summary{Total: 5, Failed: 2, Duration: 1500 * time.Millisecond})

	out := buf.String()
	if !strings.Contains(out, "5 file(s)") {
		t.Errorf("output = %q, want total count", out)
	}
	if !strings.Contains(out, "3 succeeded") || !strings.Contains(out, "2 failed") {
		t.Errorf("output = %q, want success and failure counts", out)
	}
}

// TestNonTerminalWriterHasNoColor verifies ANSI codes are absent for
// plain writers
func TestNonTerminalWriterHasNoColor(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")

	cl.Errorf("plain")

	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("output contains ANSI escapes for a non-terminal writer: %q", buf.String())
	}
}
