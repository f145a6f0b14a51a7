// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a [log.Logger] that appends to the file at path, creating parent directories as needed.
func NewFileLogger(path string) (*log.Logger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	opts := log.Options{ReportTimestamp: true, TimeFormat: time.DateTime, Formatter: log.LogfmtFormatter}
	return log.NewWithOptions(f, opts), nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// FormatDuration renders seconds as [H:]MM:SS
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	var b strings.Builder
	if h := seconds / 3600; h > 0 {
		fmt.Fprintf(&b, "%d:", h)
	}
	fmt.Fprintf(&b, "%02d:%02d", (seconds/60)%60, seconds%60)
	return b.String()
}

// FormatTimestamp renders a unix timestamp with the given layout (dd/mm/yyyy when empty).
//
// Negative timestamps (releases before 1970) are supported.
func FormatTimestamp(ts int64, layout string) string {
	if layout == "" {
		layout = "02/01/2006"
	}
	if ts < 0 {
		return time.Unix(0, 0).UTC().Add(time.Duration(ts) * time.Second).Format(layout)
	}
	return time.Unix(ts, 0).Format(layout)
}

// FormatBool renders a boolean as the capitalized True/False tokens of the playlist text format.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
