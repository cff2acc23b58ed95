package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: LevelWarn, Output: &buf, DisableTimestamps: true})

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("debug message should be filtered at warn level")
	}
	if strings.Contains(out, "info message") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("warn message missing")
	}
	if !strings.Contains(out, "error message") {
		t.Error("error message missing")
	}
}

func TestLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: LevelInfo, Output: &buf, DisableTimestamps: true, Prefix: "My Plugin"})

	log.Info("hello")

	out := buf.String()
	if !strings.Contains(out, "[My Plugin]") {
		t.Errorf("output %q missing prefix", out)
	}
}

func TestLoggerWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Level: LevelInfo, Output: &buf, DisableTimestamps: true})

	scoped := base.WithPrefix("Scoped")
	if scoped.Prefix() != "Scoped" {
		t.Errorf("Prefix() = %q, want %q", scoped.Prefix(), "Scoped")
	}

	scoped.Info("scoped message")
	if !strings.Contains(buf.String(), "[Scoped] scoped message") {
		t.Errorf("output %q missing scoped prefix", buf.String())
	}

	// Base logger is unaffected.
	if base.Prefix() != "" {
		t.Errorf("base Prefix() = %q, want empty", base.Prefix())
	}
}

func TestLoggerDisableTimestamps(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: LevelInfo, Output: &buf, DisableTimestamps: true})

	log.Info("no stamp")

	if !strings.HasPrefix(buf.String(), "[INFO]") {
		t.Errorf("output %q should start with level when timestamps disabled", buf.String())
	}
}

func TestLoggerForceColor(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: LevelDebug, Output: &buf, DisableTimestamps: true, ForceColor: true})

	log.Error("red message")

	if !strings.Contains(buf.String(), "\x1b[31m") {
		t.Errorf("output %q missing ANSI color escape", buf.String())
	}
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: LevelInfo, Output: &buf, DisableTimestamps: true})

	log.WithField("plugin", "example").Info("loaded")

	if !strings.Contains(buf.String(), "plugin=example") {
		t.Errorf("output %q missing field", buf.String())
	}
}

func TestLoggerFormatArgs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: LevelInfo, Output: &buf, DisableTimestamps: true})

	log.Info("count=%d name=%s", 3, "x")

	if !strings.Contains(buf.String(), "count=3 name=x") {
		t.Errorf("output %q missing formatted args", buf.String())
	}
}

func TestNullLogger(t *testing.T) {
	// Must not panic even with nil output.
	Null.Info("ignored")
	Null.Error("ignored")
}
