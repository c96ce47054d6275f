package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{59, "0:59"},
		{205, "3:25"},
		{3723, "1:02:03"},
	}

	for _, tt := range tc {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestParseDurationLabel(t *testing.T) {
	tc := []struct {
		label string
		want  int
	}{
		{"", 0},
		{"3:25", 205},
		{"1:02:03", 3723},
		{"45", 45},
		{"abc", 0},
		{"3:-1", 0},
	}

	for _, tt := range tc {
		t.Run(tt.label, func(t *testing.T) {
			if got := ParseDurationLabel(tt.label); got != tt.want {
				t.Errorf("ParseDurationLabel(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestGenerateTimestampedID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a := GenerateTimestampedID(now)
	b := GenerateTimestampedID(now)

	if !strings.HasPrefix(a, "1700000000123-") {
		t.Errorf("expected millisecond prefix, got %s", a)
	}
	if a == b {
		t.Errorf("expected distinct ids for the same instant, got %s twice", a)
	}
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to buffer", func(t *testing.T) {
		var buf bytes.Buffer
		l := WithLogger(NewLogger(&buf), "component", "test")
		l.Info("hello")
		if !strings.Contains(buf.String(), "component=test") {
			t.Errorf("expected child fields in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "ytplay.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		l.Info("written")
	})
}
