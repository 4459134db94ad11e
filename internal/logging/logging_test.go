package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "warn", false)
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	l.WithField("stage", "normalize").Info("hidden")
	l.WithField("stage", "impute").Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "stage=impute") || !strings.Contains(out, "shown") {
		t.Fatalf("missing structured warn entry: %q", out)
	}
}

func TestDebugOverridesLevel(t *testing.T) {
	l, err := NewWithWriter(&bytes.Buffer{}, "error", true)
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v, want debug", l.GetLevel())
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := NewWithWriter(&bytes.Buffer{}, "loud", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	l, err := NewWithWriter(&bytes.Buffer{}, "", false)
	if err != nil || l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("empty level should default to info, got %v %v", l, err)
	}
}
