package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
)

var _ slog.Handler = &ConsoleHandler{}

// ConsoleHandler formats the logger output in a human-readable way.
type ConsoleHandler struct {
	level      slog.Leveler
	timeFormat string
	attrs      []slog.Attr
	group      string

	mu *sync.Mutex
	w  io.Writer
}

// NewConsoleHandler returns a new console handler.
// A timeFormat of "-" disables time output.
func NewConsoleHandler(w io.Writer, level slog.Leveler, timeFormat string) *ConsoleHandler {
	if timeFormat == "" {
		timeFormat = DefaultTimeFormat
	}
	return &ConsoleHandler{
		level:      level,
		timeFormat: timeFormat,
		mu:         &sync.Mutex{},
		w:          w,
	}
}

// Enabled reports whether the handler handles records at the given level.
// The handler ignores records whose level is lower.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle handles the Record.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if h.timeFormat != "-" {
		buf.WriteString(r.Time.Format(h.timeFormat))
		buf.WriteString("  ")
	}

	buf.WriteString(levelString(r.Level))
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler whose attributes consist of both the
// receiver's attributes and the arguments.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup returns a new handler that prefixes attribute keys with the
// group name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	nh := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	nh.group = name
	return &nh
}

func (h *ConsoleHandler) appendAttr(buf *bytes.Buffer, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	buf.WriteByte(' ')
	if h.group != "" {
		buf.WriteString(h.group)
		buf.WriteByte('.')
	}
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(a.Value.Resolve().String())
}
