// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single direct message between two users. The sender and
// receiver never change after creation; only Read flips, and only from
// false to true.
type Message struct {
	ID        string    `json:"id"`
	Sender    UserRef   `json:"sender"`
	Receiver  UserRef   `json:"receiver"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// messageWire is the server's message document. Timestamps arrive as
// `timestamp` or `createdAt`; the read flag as `read` or `isRead`.
type messageWire struct {
	ID        string    `json:"id"`
	MongoID   string    `json:"_id"`
	Sender    UserRef   `json:"sender"`
	Receiver  UserRef   `json:"receiver"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	Read      *bool     `json:"read"`
	IsRead    *bool     `json:"isRead"`
}

// UnmarshalJSON decodes the server's message shapes.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Message{
		ID:        firstNonEmpty(w.ID, w.MongoID),
		Sender:    w.Sender,
		Receiver:  w.Receiver,
		Content:   w.Content,
		Timestamp: w.Timestamp,
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = w.CreatedAt
	}
	switch {
	case w.Read != nil:
		m.Read = *w.Read
	case w.IsRead != nil:
		m.Read = *w.IsRead
	}
	return nil
}

// Validate checks that the message can be placed in a thread.
func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: message without id", ErrInvalid)
	}
	if m.Sender.ID == "" {
		return fmt.Errorf("%w: message %s without sender", ErrInvalid, m.ID)
	}
	if m.Receiver.ID == "" {
		return fmt.Errorf("%w: message %s without receiver", ErrInvalid, m.ID)
	}
	return nil
}

// IsFrom reports whether userID sent the message.
func (m Message) IsFrom(userID string) bool {
	return m.Sender.ID == userID
}

// IsIncoming reports whether the message was addressed to userID.
func (m Message) IsIncoming(userID string) bool {
	return m.Receiver.ID == userID
}

// Involves reports whether the message belongs to the thread between a and b.
func (m Message) Involves(a, b string) bool {
	return (m.Sender.ID == a && m.Receiver.ID == b) ||
		(m.Sender.ID == b && m.Receiver.ID == a)
}

// Counterpart returns the other participant from selfID's point of view.
func (m Message) Counterpart(selfID string) UserRef {
	if m.Sender.ID == selfID {
		return m.Receiver
	}
	return m.Sender
}

// =============================================================================
// SEND REQUEST
// =============================================================================

// SendRequest is the body of POST /messages.
type SendRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}
