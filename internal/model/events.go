// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Real-time event names.
const (
	EventNewMessage  = "new-message"
	EventMessageRead = "message-read"
	EventJoin        = "join"
)

// NewMessageEvent carries a message pushed to the receiver's room.
type NewMessageEvent struct {
	Message Message
}

// UnmarshalJSON accepts a bare message or {"message": {...}}.
func (e *NewMessageEvent) UnmarshalJSON(data []byte) error {
	var probe struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if raw := bytes.TrimSpace(probe.Message); len(raw) > 0 && raw[0] == '{' {
		data = raw
	}
	return json.Unmarshal(data, &e.Message)
}

// Validate checks the embedded message.
func (e NewMessageEvent) Validate() error {
	return e.Message.Validate()
}

// MessageReadEvent announces that the receiver has read a message.
type MessageReadEvent struct {
	MessageID string
}

// UnmarshalJSON accepts {"messageId": ...}, {"message_id": ...}, {"id": ...}
// or a bare id string.
func (e *MessageReadEvent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.MessageID)
	}
	var w struct {
		MessageID  string `json:"messageId"`
		MessageID2 string `json:"message_id"`
		ID         string `json:"id"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.MessageID = firstNonEmpty(w.MessageID, w.MessageID2, w.ID)
	return nil
}

// Validate checks that a message id is present.
func (e MessageReadEvent) Validate() error {
	if e.MessageID == "" {
		return fmt.Errorf("%w: message-read without message id", ErrInvalid)
	}
	return nil
}

// JoinRequest is emitted after connecting to enter the user's room.
type JoinRequest struct {
	UserID string `json:"userId"`
}
