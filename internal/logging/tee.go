// Package logging stores channel-tagged log records alongside the console
// output.
package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amishk599/jobfeeds/internal/model"
)

// ChannelKey is the attribute that marks a record for the log store.
const ChannelKey = "channel"

// Sink persists log entries. *store.SQLiteStore satisfies it.
type Sink interface {
	InsertLog(ctx context.Context, e model.LogEntry) error
}

// TeeHandler passes records to an inner handler and also writes records
// carrying a channel attribute, at or above level, to a Sink.
type TeeHandler struct {
	inner slog.Handler
	sink  Sink
	level slog.Leveler
	attrs []slog.Attr
	group string
}

var _ slog.Handler = (*TeeHandler)(nil)

func NewTeeHandler(inner slog.Handler, sink Sink, level slog.Leveler) *TeeHandler {
	return &TeeHandler{inner: inner, sink: sink, level: level}
}

func (h *TeeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.inner.Enabled(ctx, l) || l >= h.level.Level()
}

func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var innerErr error
	if h.inner.Enabled(ctx, r.Level) {
		innerErr = h.inner.Handle(ctx, r)
	}
	if r.Level < h.level.Level() {
		return innerErr
	}

	entry := h.entry(r)
	if entry.Channel == "" {
		return innerErr
	}
	return errors.Join(innerErr, h.sink.InsertLog(context.WithoutCancel(ctx), entry))
}

func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	c.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}
	return c
}

func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.inner = h.inner.WithGroup(name)
	if c.group != "" {
		c.group += "."
	}
	c.group += name
	return c
}

func (h *TeeHandler) clone() *TeeHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	return &c
}

func (h *TeeHandler) qualify(a slog.Attr) slog.Attr {
	if h.group != "" {
		a.Key = h.group + "." + a.Key
	}
	return a
}

func (h *TeeHandler) entry(r slog.Record) model.LogEntry {
	e := model.LogEntry{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
		Context: map[string]any{},
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	add := func(a slog.Attr) {
		if a.Key == ChannelKey {
			e.Channel = a.Value.Resolve().String()
			return
		}
		flatten(e.Context, a.Key, a.Value)
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(h.qualify(a))
		return true
	})
	return e
}

func flatten(dst map[string]any, key string, v slog.Value) {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		for _, a := range v.Group() {
			flatten(dst, key+"."+a.Key, a.Value)
		}
	case slog.KindDuration:
		dst[key] = v.Duration().String()
	case slog.KindTime:
		dst[key] = v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			dst[key] = err.Error()
			return
		}
		dst[key] = v.Any()
	default:
		dst[key] = v.Any()
	}
}
