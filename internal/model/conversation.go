// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation summarizes the thread with one counterpart. It is derived
// server-side and refetched after every send.
type Conversation struct {
	User          User      `json:"user"`
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	UnreadCount   int       `json:"unreadCount"`
}

// conversationWire covers the variants the server emits: the counterpart
// under `user`, `participant` or `otherUser`, and `lastMessage` as either
// a string or a populated message.
type conversationWire struct {
	User          *User           `json:"user"`
	Participant   *User           `json:"participant"`
	OtherUser     *User           `json:"otherUser"`
	LastMessage   json.RawMessage `json:"lastMessage"`
	LastMessageAt time.Time       `json:"lastMessageAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	UnreadCount   int             `json:"unreadCount"`
	Unread        int             `json:"unread"`
}

// UnmarshalJSON decodes the server's conversation shapes.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var w conversationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Conversation{
		LastMessageAt: w.LastMessageAt,
		UnreadCount:   w.UnreadCount,
	}
	for _, u := range []*User{w.User, w.Participant, w.OtherUser} {
		if u != nil {
			c.User = *u
			break
		}
	}
	if c.UnreadCount == 0 {
		c.UnreadCount = w.Unread
	}

	raw := bytes.TrimSpace(w.LastMessage)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &c.LastMessage); err != nil {
			return err
		}
	default:
		var m Message
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("lastMessage: %w", err)
		}
		c.LastMessage = m.Content
		if c.LastMessageAt.IsZero() {
			c.LastMessageAt = m.Timestamp
		}
	}
	if c.LastMessageAt.IsZero() {
		c.LastMessageAt = w.UpdatedAt
	}
	return nil
}

// Validate checks that the conversation names its counterpart.
func (c Conversation) Validate() error {
	if err := c.User.Validate(); err != nil {
		return fmt.Errorf("conversation: %w", err)
	}
	if c.UnreadCount < 0 {
		return fmt.Errorf("%w: negative unread count for %s", ErrInvalid, c.User.ID)
	}
	return nil
}
