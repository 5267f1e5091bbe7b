// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/hrsarthi/sarthi-tui/internal/model"
)

// =============================================================================
// THREAD STATE
// =============================================================================

// ThreadState is the lifecycle of the open thread.
type ThreadState int

const (
	// ThreadIdle means no counterpart is selected.
	ThreadIdle ThreadState = iota

	// ThreadLoading means history for the selected counterpart is in flight.
	ThreadLoading

	// ThreadLoaded means history has arrived; appends are accepted.
	ThreadLoaded
)

// String returns the state name.
func (s ThreadState) String() string {
	switch s {
	case ThreadIdle:
		return "idle"
	case ThreadLoading:
		return "loading"
	case ThreadLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// =============================================================================
// THREAD
// =============================================================================

// Thread is the message list with one counterpart. Messages are kept in
// arrival order and never reordered; an id appears at most once.
type Thread struct {
	selfID      string
	counterpart model.User
	state       ThreadState
	loadSeq     uint64
	messages    []model.Message
	index       map[string]int
	draft       string
	revision    uint64
}

// NewThread creates an idle thread for selfID.
func NewThread(selfID string) *Thread {
	return &Thread{selfID: selfID, index: make(map[string]int)}
}

// State returns the current state.
func (t *Thread) State() ThreadState {
	return t.state
}

// Counterpart returns the selected user; zero when idle.
func (t *Thread) Counterpart() model.User {
	return t.counterpart
}

// IsWith reports whether the thread is open with userID.
func (t *Thread) IsWith(userID string) bool {
	return t.state != ThreadIdle && t.counterpart.ID == userID
}

// Revision changes on every mutation of the message list. Views compare
// it to decide when to scroll to the newest message.
func (t *Thread) Revision() uint64 {
	return t.revision
}

// Open selects counterpart, discards the previous messages and enters
// loading. The returned token must accompany the history result.
func (t *Thread) Open(counterpart model.User) uint64 {
	t.loadSeq++
	t.counterpart = counterpart
	t.state = ThreadLoading
	t.messages = nil
	t.index = make(map[string]int)
	t.draft = ""
	t.revision++
	return t.loadSeq
}

// Close returns to idle.
func (t *Thread) Close() {
	t.loadSeq++
	t.counterpart = model.User{}
	t.state = ThreadIdle
	t.messages = nil
	t.index = make(map[string]int)
	t.draft = ""
	t.revision++
}

// ApplyHistory installs the fetched history if token is still current.
// Messages appended while loading that the history does not contain are
// kept after it. Returns false for a stale result.
func (t *Thread) ApplyHistory(token uint64, history []model.Message) bool {
	if token != t.loadSeq || t.state != ThreadLoading {
		return false
	}
	early := t.messages
	t.messages = nil
	t.index = make(map[string]int, len(history)+len(early))
	for _, m := range history {
		t.insert(m)
	}
	for _, m := range early {
		t.insert(m)
	}
	t.state = ThreadLoaded
	t.revision++
	return true
}

// Append adds msg at the end if it belongs to this thread and is not
// already present. Returns whether the list changed.
func (t *Thread) Append(msg model.Message) bool {
	if t.state == ThreadIdle || !msg.Involves(t.selfID, t.counterpart.ID) {
		return false
	}
	if !t.insert(msg) {
		return false
	}
	t.revision++
	return true
}

func (t *Thread) insert(msg model.Message) bool {
	if _, dup := t.index[msg.ID]; dup {
		return false
	}
	t.index[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)
	return true
}

// MarkRead flips the in-memory read flag of id. Returns whether a message
// changed.
func (t *Thread) MarkRead(id string) bool {
	i, ok := t.index[id]
	if !ok || t.messages[i].Read {
		return false
	}
	t.messages[i].Read = true
	t.revision++
	return true
}

// Messages returns a copy of the message list.
func (t *Thread) Messages() []model.Message {
	return append([]model.Message(nil), t.messages...)
}

// Len returns the number of messages.
func (t *Thread) Len() int {
	return len(t.messages)
}

// Message returns the message with id.
func (t *Thread) Message(id string) (model.Message, bool) {
	i, ok := t.index[id]
	if !ok {
		return model.Message{}, false
	}
	return t.messages[i], true
}

// UnreadIncoming returns ids of messages addressed to the current user
// that are not yet read.
func (t *Thread) UnreadIncoming() []string {
	var ids []string
	for _, m := range t.messages {
		if m.IsIncoming(t.selfID) && !m.Read {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// =============================================================================
// DRAFT
// =============================================================================

// SetDraft replaces the input text.
func (t *Thread) SetDraft(text string) {
	t.draft = text
}

// Draft returns the input text.
func (t *Thread) Draft() string {
	return t.draft
}

// ClearDraft empties the input.
func (t *Thread) ClearDraft() {
	t.draft = ""
}

// Sendable returns the trimmed draft and whether it may be sent.
func (t *Thread) Sendable() (string, bool) {
	content := strings.TrimSpace(t.draft)
	return content, content != "" && t.state == ThreadLoaded
}
