package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name    string
		seconds int
		want    string
	}{
		{name: "zero", seconds: 0, want: "00:00"},
		{name: "under a minute", seconds: 42, want: "00:42"},
		{name: "minutes", seconds: 185, want: "03:05"},
		{name: "hours", seconds: 3*3600 + 61, want: "3:01:01"},
		{name: "negative clamps", seconds: -5, want: "00:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Run("negative timestamp", func(t *testing.T) {
		// 1969-12-31
		if got := FormatTimestamp(-86400, "2006-01-02"); got != "1969-12-31" {
			t.Errorf("expected 1969-12-31, got %s", got)
		}
	})

	t.Run("default layout", func(t *testing.T) {
		got := FormatTimestamp(0, "")
		if len(got) != len("01/01/1970") || strings.Count(got, "/") != 2 {
			t.Errorf("expected dd/mm/yyyy, got %s", got)
		}
	})
}

func TestFormatBool(t *testing.T) {
	if FormatBool(true) != "True" || FormatBool(false) != "False" {
		t.Error("expected True/False literals")
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "qbx.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}

	logger.Info("qbx start", "mode", "add")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "qbx start") {
		t.Errorf("expected log line in file, got %q", string(data))
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected unique non-empty IDs, got %q and %q", a, b)
	}
}
