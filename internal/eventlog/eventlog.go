// Package eventlog appends pipeline events to a JSON lines file. Each line
// is {"ts": ..., "event": ..., "detail": ...}.
package eventlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type Log struct {
	logger *slog.Logger
	closer io.Closer
}

// New writes events to w.
func New(w io.Writer) *Log {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}

			switch a.Key {
			case slog.TimeKey:
				a.Key = "ts"
			case slog.MessageKey:
				a.Key = "event"
			case slog.LevelKey:
				return slog.Attr{}
			}

			return a
		},
	})

	return &Log{logger: slog.New(handler)}
}

// Open appends events to the file at path, creating it if needed.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating event log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	l := New(f)
	l.closer = f

	return l, nil
}

// Event records one event. A nil Log discards it.
func (l *Log) Event(ctx context.Context, name string, detail any) {
	if l == nil {
		return
	}

	l.logger.LogAttrs(ctx, slog.LevelInfo, name, slog.Any("detail", detail))
}

func (l *Log) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}

	return l.closer.Close()
}
