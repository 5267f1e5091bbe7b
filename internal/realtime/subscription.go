// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import "sync"

// Handler receives the raw data of one event frame.
type Handler func(data []byte)

// subscription is one registration in the channel's table. scope is the
// user the registration belongs to; empty means "bind at next connect".
type subscription struct {
	id      uint64
	scope   string
	handler Handler
}

// Subscription is the handle returned by Subscribe. Unsubscribe removes
// exactly this registration and nothing else.
type Subscription struct {
	ch    *Channel
	event string
	id    uint64
	once  sync.Once
}

// Event returns the event name this handle was registered for.
func (s *Subscription) Event() string {
	if s == nil {
		return ""
	}
	return s.event
}

// Unsubscribe removes the registration. Safe to call more than once and on
// a nil handle.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.ch == nil {
		return
	}
	s.once.Do(func() {
		s.ch.remove(s.event, s.id)
	})
}

// Group collects handles so a view can drop all of its registrations in
// one call on teardown.
type Group struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add records handles in the group.
func (g *Group) Add(subs ...*Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs = append(g.subs, subs...)
}

// Len returns the number of handles held.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// UnsubscribeAll releases every handle and empties the group.
func (g *Group) UnsubscribeAll() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}
