package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHelpersNoopBeforeInit(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()
	Logger = nil

	// Must not panic
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
}

func TestInitWriterLevels(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	var buf bytes.Buffer
	InitWriter(&buf, false)

	Debug("hidden debug line")
	Warn("visible warning", "habit", "abc")

	out := buf.String()
	if strings.Contains(out, "hidden debug line") {
		t.Errorf("debug output should be suppressed at warn level, got %q", out)
	}
	if !strings.Contains(out, "visible warning") {
		t.Errorf("expected warning in output, got %q", out)
	}
	if !strings.Contains(out, "habit=abc") {
		t.Errorf("expected structured key/value in output, got %q", out)
	}
}

func TestInitCreatesLogDir(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	dir := filepath.Join(t.TempDir(), "logs")
	if err := Init(Config{LogDir: dir}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected log dir to exist: %v", err)
	}
	if Logger == nil {
		t.Error("expected Logger to be set")
	}
}
