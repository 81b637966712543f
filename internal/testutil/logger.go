// Package testutil provides test utilities for structured logging.
package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// Entry is one captured log record with its attributes flattened.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// Capture records every log entry for later assertions.
type Capture struct {
	mu      sync.Mutex
	entries []Entry
}

// NewCaptureLogger returns a logger whose records are kept in a Capture.
func NewCaptureLogger() (*slog.Logger, *Capture) {
	c := &Capture{}
	return slog.New(&captureHandler{c: c}), c
}

// Entries returns a copy of all captured entries.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// AtLevel returns the entries logged at exactly level.
func (c *Capture) AtLevel(level slog.Level) []Entry {
	var out []Entry
	for _, e := range c.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Warnings is shorthand for AtLevel(slog.LevelWarn).
func (c *Capture) Warnings() []Entry {
	return c.AtLevel(slog.LevelWarn)
}

type captureHandler struct {
	c     *Capture
	attrs []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{Level: r.Level, Message: r.Message, Attrs: map[string]any{}}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.Any()
		return true
	})

	h.c.mu.Lock()
	h.c.entries = append(h.c.entries, e)
	h.c.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &captureHandler{c: h.c, attrs: merged}
}

// Groups are flattened; tests only look at leaf keys.
func (h *captureHandler) WithGroup(string) slog.Handler { return h }
