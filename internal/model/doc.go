// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, conversations and
// messages exchanged with the HR SARTHI chat API.
//
// Every type decodes the shapes the server actually emits (`id` or `_id`,
// bare id strings or populated user objects, wrapped or bare payloads) and
// exposes a Validate method. The REST client calls Validate once at the
// boundary so the rest of the application can rely on required fields being
// present.
//
// # Key Types
//
//   - User: Directory entry (name, role, department)
//   - UserRef: Sender/receiver reference inside a message
//   - Conversation: Counterpart user plus last-message summary and unread count
//   - Message: Single direct message with sender, receiver, content and read flag
//   - NewMessageEvent, MessageReadEvent: Real-time event payloads
//
// # Usage
//
//	var msgs []model.Message
//	if err := json.Unmarshal(body, &msgs); err != nil {
//	    return err
//	}
//	for _, m := range msgs {
//	    if m.IsIncoming(selfID) && !m.Read {
//	        // mark read
//	    }
//	}
package model
