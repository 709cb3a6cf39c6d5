// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag provides the loader's diagnostic logging sink: every
// relocation and load-time event is fanned out to both a human-readable
// stream (normally stderr) and an in-memory ring buffer that the repl
// command's log command can page back through after a run.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// Entry is one captured log record, formatted for display.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// Ring is a fixed-capacity circular buffer of log Entries. It implements
// slog.Handler so it can be used directly as a fan-out target.
type Ring struct {
	mu     sync.Mutex
	cap    int
	buf    []Entry
	next   int
	full   bool
	groups []string
	attrs  []slog.Attr
}

// NewRing returns a Ring that retains the most recent cap entries.
func NewRing(cap int) *Ring {
	if cap <= 0 {
		cap = 1
	}
	return &Ring{cap: cap, buf: make([]Entry, cap)}
}

func (r *Ring) Enabled(context.Context, slog.Level) bool { return true }

func (r *Ring) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]any, rec.NumAttrs()+len(r.attrs))
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	e := Entry{Level: rec.Level, Message: rec.Message, Attrs: attrs}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % r.cap
	if r.next == 0 {
		r.full = true
	}
	return nil
}

func (r *Ring) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := &Ring{cap: r.cap, buf: r.buf, next: r.next, full: r.full, groups: r.groups}
	n.attrs = append(append([]slog.Attr{}, r.attrs...), attrs...)
	return n
}

func (r *Ring) WithGroup(name string) slog.Handler {
	n := &Ring{cap: r.cap, buf: r.buf, next: r.next, full: r.full, attrs: r.attrs}
	n.groups = append(append([]string{}, r.groups...), name)
	return n
}

// Entries returns the retained entries in chronological order.
func (r *Ring) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Entry, r.cap)
	copy(out, r.buf[r.next:])
	copy(out[r.cap-r.next:], r.buf[:r.next])
	return out
}

// NewLogger returns a logger that fans every record out to w (as text,
// at minimum severity level) and into ring (at every level).
func NewLogger(w io.Writer, ring *Ring, level slog.Level) *slog.Logger {
	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	handler := slogmulti.Fanout(textHandler, ring)
	return slog.New(handler)
}

// Format renders an Entry the way the repl's log command displays it.
func Format(e Entry) string {
	s := fmt.Sprintf("[%s] %s", e.Level, e.Message)
	for k, v := range e.Attrs {
		s += fmt.Sprintf(" %s=%v", k, v)
	}
	return s
}
