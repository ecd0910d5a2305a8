// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package notify carries user-facing, fire-and-forget notifications.
//
// A Notifier travels in the request context. Producers call Notify and never
// read anything back; the web layer renders collected notices as toasts and the
// JSON API returns them as "notices".
package notify

import (
	"context"
	"sync"

	xglog "github.com/ManuGH/vidfolio/internal/log"
)

// Kind classifies a notification.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// Notice is one rendered notification.
type Notice struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Notifier shows a transient message of the given kind. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, text string)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, kind Kind, text string)

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, kind Kind, text string) { f(ctx, kind, text) }

type discard struct{}

func (discard) Notify(context.Context, Kind, string) {}

// Discard drops every notification.
var Discard Notifier = discard{}

// Collector buffers notices for a single request or session. Safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Notify implements Notifier.
func (c *Collector) Notify(_ context.Context, kind Kind, text string) {
	c.mu.Lock()
	c.notices = append(c.notices, Notice{Kind: kind, Text: text})
	c.mu.Unlock()
}

// Notices returns a copy of the collected notices.
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Drain returns the collected notices and clears the buffer.
func (c *Collector) Drain() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, kind Kind, text string) {
	logger := xglog.WithComponentFromContext(ctx, "notify")
	ev := logger.Info()
	if kind == Error || kind == Warning {
		ev = logger.Warn()
	}
	ev.Str("event", "notify."+string(kind)).Str("kind", string(kind)).Msg(text)
}

// Multi fans a notification out to several notifiers.
func Multi(ns ...Notifier) Notifier {
	return Func(func(ctx context.Context, kind Kind, text string) {
		for _, n := range ns {
			n.Notify(ctx, kind, text)
		}
	})
}

type ctxKey struct{}

// WithNotifier returns a context carrying n.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, n)
}

// From returns the notifier carried by ctx, or Discard.
func From(ctx context.Context) Notifier {
	if ctx == nil {
		return Discard
	}
	if n, ok := ctx.Value(ctxKey{}).(Notifier); ok && n != nil {
		return n
	}
	return Discard
}

// Send is shorthand for From(ctx).Notify(ctx, kind, text).
func Send(ctx context.Context, kind Kind, text string) {
	From(ctx).Notify(ctx, kind, text)
}
