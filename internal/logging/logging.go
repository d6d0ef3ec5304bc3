// Package logging builds the charmbracelet logger shared by the client, the
// TUI and the one-shot commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const logFileName = "todo.log"

// New returns a logger writing to w at the given level ("" means info).
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		parsed, err := log.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		lvl = parsed
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "todo",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// DefaultFile is where the TUI logs when no file was configured; writing to
// stderr would tear the alternate screen.
func DefaultFile() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache dir: %w", err)
	}
	return filepath.Join(dir, "todo", logFileName), nil
}

// OpenFile appends to path, creating parent directories. Callers close the file.
func OpenFile(path, level string) (*log.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	l, err := New(f, level)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	l.SetFormatter(log.LogfmtFormatter)
	return l, f, nil
}
