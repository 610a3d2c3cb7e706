// Package sessionlog keeps the warnings and errors of the running session:
// a slog handler tees them into a Journal that holds a bounded in-memory
// history and a JSON-lines file.
package sessionlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"
)

// Entry is one teed log record.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	// Group is the accumulated dot-separated slog group name.
	Group string
	// Attrs holds the handler-level and record-level attributes rendered as
	// strings, for example trigger_id.
	Attrs map[string]string
}

// EntryCallback receives records at or above the capture threshold.
type EntryCallback func(Entry)

// TeeHandler wraps a base [slog.Handler] and tees records at or above minLevel
// to a callback function. All records are forwarded to the base handler regardless
// of level; only the callback invocation is gated by minLevel.
type TeeHandler struct {
	base     slog.Handler
	callback EntryCallback
	minLevel slog.Level
	group    string
	attrs    []slog.Attr
}

// NewTeeHandler creates a TeeHandler that delegates to base and invokes callback
// for every record whose level is >= minLevel. A nil callback only delegates.
func NewTeeHandler(base slog.Handler, minLevel slog.Level, callback EntryCallback) *TeeHandler {
	return &TeeHandler{
		base:     base,
		callback: callback,
		minLevel: minLevel,
	}
}

// Enabled defers to the base handler; minLevel only gates the callback.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle forwards the record to the base handler, then invokes the callback
// when the level meets minLevel, whether or not the base handler failed.
func (h *TeeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.base.Handle(ctx, record)

	if h.callback != nil && record.Level >= h.minLevel {
		entry := Entry{
			Time:    record.Time,
			Level:   record.Level,
			Message: record.Message,
			Group:   h.group,
			Attrs:   h.collectAttrs(record),
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					// stderr, not slog: logging here would re-enter this handler.
					fmt.Fprintf(os.Stderr, "[session-log] callback panicked: %v\n%s\n", r, debug.Stack())
				}
			}()
			h.callback(entry)
		}()
	}

	return err
}

func (h *TeeHandler) collectAttrs(record slog.Record) map[string]string {
	if len(h.attrs) == 0 && record.NumAttrs() == 0 {
		return nil
	}
	out := make(map[string]string, len(h.attrs)+record.NumAttrs())
	prefix := ""
	if h.group != "" {
		prefix = h.group + "."
	}
	for _, a := range h.attrs {
		addAttr(out, "", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		addAttr(out, prefix, a)
		return true
	})
	return out
}

func addAttr(out map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, inner := range a.Value.Group() {
			addAttr(out, p, inner)
		}
		return
	}
	out[prefix+a.Key] = a.Value.String()
}

// WithAttrs returns a new TeeHandler whose base handler has the given
// attributes applied. Attributes are also kept for teed entries.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	prefixed := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	prefixed = append(prefixed, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a = slog.Group(h.group, a)
		}
		prefixed = append(prefixed, a)
	}
	return &TeeHandler{
		base:     h.base.WithAttrs(attrs),
		callback: h.callback,
		minLevel: h.minLevel,
		group:    h.group,
		attrs:    prefixed,
	}
}

// WithGroup returns a new TeeHandler whose base handler is wrapped with the
// given group name, appended to the accumulated group.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h // slog.Handler contract: empty group name returns the receiver unchanged.
	}
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}

	return &TeeHandler{
		base:     h.base.WithGroup(name),
		callback: h.callback,
		minLevel: h.minLevel,
		group:    newGroup,
		attrs:    h.attrs,
	}
}
