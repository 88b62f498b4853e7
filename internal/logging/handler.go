package logging

import (
	"context"
	"errors"
	"log/slog"
)

// StateFunc returns live simulation attributes for a log record.
type StateFunc func() []slog.Attr

// tee sends each record to every enabled handler.
type tee []slog.Handler

// Tee combines handlers, skipping nil ones. A single handler is returned
// unwrapped.
func Tee(handlers ...slog.Handler) slog.Handler {
	var t tee
	for _, h := range handlers {
		if h != nil {
			t = append(t, h)
		}
	}
	if len(t) == 1 {
		return t[0]
	}
	return t
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers to every handler and joins their errors.
func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t tee) WithGroup(name string) slog.Handler {
	if name == "" {
		return t
	}
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

// stateHandler adds the current game state to every record under "game".
type stateHandler struct {
	next  slog.Handler
	state StateFunc
}

// WithState wraps h so records carry a "game" group built from fn.
// A nil fn returns h.
func WithState(h slog.Handler, fn StateFunc) slog.Handler {
	if fn == nil {
		return h
	}
	return &stateHandler{next: h, state: fn}
}

func (h *stateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *stateHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := h.state(); len(attrs) > 0 {
		args := make([]any, len(attrs))
		for i, a := range attrs {
			args[i] = a
		}
		r.AddAttrs(slog.Group("game", args...))
	}
	return h.next.Handle(ctx, r)
}

func (h *stateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &stateHandler{next: h.next.WithAttrs(attrs), state: h.state}
}

func (h *stateHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &stateHandler{next: h.next.WithGroup(name), state: h.state}
}
