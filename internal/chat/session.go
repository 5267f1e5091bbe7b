// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/session"
)

// Error variables for send preconditions.
var (
	// ErrNoThread indicates no conversation is open or it is still loading.
	ErrNoThread = errors.New("no conversation open")

	// ErrEmptyDraft indicates the trimmed input is empty.
	ErrEmptyDraft = errors.New("nothing to send")
)

// DeliveryStatus is the indicator shown on outgoing messages.
type DeliveryStatus int

const (
	// StatusNone applies to messages the current user received.
	StatusNone DeliveryStatus = iota

	// StatusSent means the server accepted the message.
	StatusSent

	// StatusSeen means the receiver has read it.
	StatusSeen
)

// String returns the indicator text.
func (s DeliveryStatus) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusSeen:
		return "seen"
	default:
		return ""
	}
}

// IncomingResult tells the caller what a new-message event requires.
type IncomingResult struct {
	// Appended is true when the message was added to the open thread.
	Appended bool

	// MarkRead is true when the message is addressed to the current user
	// in the open thread and should be marked read in the background.
	MarkRead bool

	// RefreshList is true when the conversation list is now stale.
	RefreshList bool
}

// =============================================================================
// SESSION
// =============================================================================

// Session is all view state for one signed-in identity: the conversation
// list, the open thread and the read-receipt set. It is owned by a single
// UI loop and is not safe for concurrent use. Asynchronous work captures
// Epoch before starting and checks IsCurrent before applying.
type Session struct {
	identity  session.Identity
	epoch     uint64
	directory *Directory
	thread    *Thread
	receipts  *ReceiptSet
}

// NewSession creates the state for identity.
func NewSession(identity session.Identity) *Session {
	s := &Session{}
	s.Reset(identity)
	return s
}

// Reset discards every piece of state and starts over for identity. The
// selected conversation, messages and read receipts of the previous
// identity are gone before anything for the new one is loaded.
func (s *Session) Reset(identity session.Identity) {
	s.identity = identity
	s.epoch++
	s.directory = NewDirectory(identity.UserID)
	s.thread = NewThread(identity.UserID)
	s.receipts = NewReceiptSet()
}

// Identity returns the identity this state belongs to.
func (s *Session) Identity() session.Identity {
	return s.identity
}

// SelfID returns the current user id.
func (s *Session) SelfID() string {
	return s.identity.UserID
}

// Epoch identifies this incarnation of the state.
func (s *Session) Epoch() uint64 {
	return s.epoch
}

// IsCurrent reports whether a result captured at epoch still applies.
func (s *Session) IsCurrent(epoch uint64) bool {
	return epoch == s.epoch
}

// Directory returns the conversation list state.
func (s *Session) Directory() *Directory {
	return s.directory
}

// Thread returns the open thread state.
func (s *Session) Thread() *Thread {
	return s.thread
}

// Receipts returns the read-receipt set.
func (s *Session) Receipts() *ReceiptSet {
	return s.receipts
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// OpenThread selects counterpart and returns the history load token.
func (s *Session) OpenThread(counterpart model.User) uint64 {
	return s.thread.Open(counterpart)
}

// ApplyHistory installs fetched history, seeds the receipt set from the
// server read flags and returns ids that should be marked read. ok is false
// for a stale result.
func (s *Session) ApplyHistory(token uint64, history []model.Message) (unread []string, ok bool) {
	if !s.thread.ApplyHistory(token, history) {
		return nil, false
	}
	s.receipts.Seed(history)
	for _, m := range s.thread.Messages() {
		if s.receipts.Has(m.ID) {
			s.thread.MarkRead(m.ID)
		}
	}
	return s.thread.UnreadIncoming(), true
}

// ApplyHistoryError leaves loading with an empty thread.
func (s *Session) ApplyHistoryError(token uint64) bool {
	return s.thread.ApplyHistory(token, nil)
}

// ApplyIncoming merges a new-message event.
func (s *Session) ApplyIncoming(msg model.Message) IncomingResult {
	self := s.SelfID()
	res := IncomingResult{RefreshList: msg.IsFrom(self) || msg.IsIncoming(self)}
	if !res.RefreshList || !s.thread.IsWith(msg.Counterpart(self).ID) {
		return res
	}
	if s.receipts.Has(msg.ID) {
		msg.Read = true
	}
	res.Appended = s.thread.Append(msg)
	res.MarkRead = res.Appended && msg.IsIncoming(s.SelfID()) && !msg.Read
	return res
}

// ApplyRead records a message-read event. Returns whether anything changed.
func (s *Session) ApplyRead(messageID string) bool {
	added := s.receipts.Add(messageID)
	flipped := s.thread.MarkRead(messageID)
	return added || flipped
}

// PrepareSend validates the draft and returns the receiver and the trimmed
// content to send.
func (s *Session) PrepareSend() (receiverID, content string, err error) {
	if s.thread.State() != ThreadLoaded {
		return "", "", ErrNoThread
	}
	content, ok := s.thread.Sendable()
	if !ok {
		return "", "", ErrEmptyDraft
	}
	return s.thread.Counterpart().ID, content, nil
}

// ApplySent appends the server's copy of a sent message and clears the
// input. A real-time echo of the same id later is a no-op.
func (s *Session) ApplySent(msg model.Message) bool {
	s.thread.ClearDraft()
	return s.thread.Append(msg)
}

// StatusOf returns the indicator for msg.
func (s *Session) StatusOf(msg model.Message) DeliveryStatus {
	if !msg.IsFrom(s.SelfID()) {
		return StatusNone
	}
	if msg.Read || s.receipts.Has(msg.ID) {
		return StatusSeen
	}
	return StatusSent
}
