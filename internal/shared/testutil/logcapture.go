package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LogRecord is one captured log record
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that keeps every record in memory
type LogCapture struct {
	mu      sync.Mutex
	records []LogRecord
	attrs   []slog.Attr
}

// NewCaptureLogger returns a logger backed by a fresh LogCapture
func NewCaptureLogger() (*slog.Logger, *LogCapture) {
	c := &LogCapture{}
	return slog.New(c), c
}

// Enabled implements slog.Handler
func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler
func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(c.attrs))
	for _, a := range c.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.mu.Lock()
	c.records = append(c.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	c.mu.Unlock()
	return nil
}

// WithAttrs implements slog.Handler. Records from the derived handler land
// in the same buffer.
func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sharedCapture{parent: c, attrs: attrs}
}

// WithGroup implements slog.Handler; groups are flattened
func (c *LogCapture) WithGroup(string) slog.Handler { return c }

// Records returns a copy of the captured records
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LogRecord(nil), c.records...)
}

// Messages returns the messages logged at level
func (c *LogCapture) Messages(level slog.Level) []string {
	var out []string
	for _, r := range c.Records() {
		if r.Level == level {
			out = append(out, r.Message)
		}
	}
	return out
}

// Contains reports whether a record at level contains substr
func (c *LogCapture) Contains(level slog.Level, substr string) bool {
	for _, m := range c.Messages(level) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type sharedCapture struct {
	parent *LogCapture
	attrs  []slog.Attr
}

func (s *sharedCapture) Enabled(context.Context, slog.Level) bool { return true }

func (s *sharedCapture) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(s.attrs...)
	return s.parent.Handle(ctx, r)
}

func (s *sharedCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sharedCapture{parent: s.parent, attrs: append(append([]slog.Attr(nil), s.attrs...), attrs...)}
}

func (s *sharedCapture) WithGroup(string) slog.Handler { return s }
