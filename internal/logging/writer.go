package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Writer forwards external tool output to slog, one record per line.
// It is attached to child process stdout/stderr so tool narration lands
// in the same stream as dsctl's own messages.
type Writer struct {
	logger *slog.Logger
	level  slog.Level
	attrs  []any
}

// NewWriter constructs a Writer bound to the provided logger and level.
// Extra attrs are attached to every forwarded line (e.g. the tool name).
func NewWriter(logger *slog.Logger, level slog.Level, attrs ...any) *Writer {
	return &Writer{logger: logger, level: level, attrs: attrs}
}

// Write logs each non-empty line of p at the configured level.
func (w *Writer) Write(p []byte) (int, error) {
	if w.logger == nil {
		return len(p), nil
	}
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		args := append([]any{"line", line}, w.attrs...)
		w.logger.Log(context.Background(), w.level, "tool output", args...)
	}
	return len(p), nil
}
