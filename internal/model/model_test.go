// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// =============================================================================
// USER TESTS
// =============================================================================

func TestUser_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantID     string
		wantName   string
		wantActive bool
	}{
		{"plain id", `{"id":"u1","firstName":"Alice","lastName":"Smith"}`, "u1", "Alice Smith", true},
		{"mongo id", `{"_id":"u2","firstName":"Bob","lastName":"Jones","isActive":false}`, "u2", "Bob Jones", false},
		{"single name field", `{"id":"u3","name":"Carol  Diaz","active":true}`, "u3", "Carol Diaz", true},
		{"email fallback", `{"id":"u4","email":"d@hr.example"}`, "u4", "d@hr.example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			if err := json.Unmarshal([]byte(tt.input), &u); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if u.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", u.ID, tt.wantID)
			}
			if got := u.DisplayName(); got != tt.wantName {
				t.Errorf("DisplayName() = %q, want %q", got, tt.wantName)
			}
			if u.Active != tt.wantActive {
				t.Errorf("Active = %v, want %v", u.Active, tt.wantActive)
			}
		})
	}
}

func TestUser_Initials(t *testing.T) {
	u := User{ID: "u1", FirstName: "alice", LastName: "smith"}
	if got := u.Initials(); got != "AS" {
		t.Errorf("Initials() = %q, want %q", got, "AS")
	}
	if got := (User{ID: "x9"}).Initials(); got != "X" {
		t.Errorf("Initials() without names = %q, want %q", got, "X")
	}
}

func TestUser_Validate(t *testing.T) {
	if err := (User{}).Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if err := (User{ID: "u1"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_UnmarshalJSON_Shapes(t *testing.T) {
	input := `{
		"_id": "m1",
		"sender": {"_id": "u1", "firstName": "Alice"},
		"receiver": "u2",
		"content": "hello",
		"createdAt": "2025-03-01T10:00:00Z",
		"isRead": true
	}`
	var m Message
	if err := json.Unmarshal([]byte(input), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m.ID != "m1" || m.Sender.ID != "u1" || m.Receiver.ID != "u2" {
		t.Errorf("unexpected ids: %+v", m)
	}
	if m.Sender.DisplayName() != "Alice" {
		t.Errorf("sender name = %q", m.Sender.DisplayName())
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !m.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", m.Timestamp, want)
	}
	if !m.Read {
		t.Error("expected Read to be true from isRead")
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		ok   bool
	}{
		{"complete", Message{ID: "m1", Sender: UserRef{ID: "u1"}, Receiver: UserRef{ID: "u2"}}, true},
		{"missing id", Message{Sender: UserRef{ID: "u1"}, Receiver: UserRef{ID: "u2"}}, false},
		{"missing sender", Message{ID: "m1", Receiver: UserRef{ID: "u2"}}, false},
		{"missing receiver", Message{ID: "m1", Sender: UserRef{ID: "u1"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestMessage_Direction(t *testing.T) {
	m := Message{ID: "m1", Sender: UserRef{ID: "u1"}, Receiver: UserRef{ID: "u2"}}
	if !m.IsFrom("u1") || m.IsFrom("u2") {
		t.Error("IsFrom mismatch")
	}
	if !m.IsIncoming("u2") || m.IsIncoming("u1") {
		t.Error("IsIncoming mismatch")
	}
	if !m.Involves("u2", "u1") || m.Involves("u1", "u3") {
		t.Error("Involves mismatch")
	}
	if m.Counterpart("u1").ID != "u2" || m.Counterpart("u2").ID != "u1" {
		t.Error("Counterpart mismatch")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantUser   string
		wantLast   string
		wantUnread int
	}{
		{
			name:       "string last message",
			input:      `{"user":{"id":"u2"},"lastMessage":"hi","unreadCount":2}`,
			wantUser:   "u2",
			wantLast:   "hi",
			wantUnread: 2,
		},
		{
			name:       "populated last message",
			input:      `{"otherUser":{"_id":"u3"},"lastMessage":{"_id":"m9","content":"see you","sender":"u3","receiver":"u1"},"unread":1}`,
			wantUser:   "u3",
			wantLast:   "see you",
			wantUnread: 1,
		},
		{
			name:     "no last message",
			input:    `{"participant":{"id":"u4"},"lastMessage":null}`,
			wantUser: "u4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Conversation
			if err := json.Unmarshal([]byte(tt.input), &c); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if c.User.ID != tt.wantUser {
				t.Errorf("User.ID = %q, want %q", c.User.ID, tt.wantUser)
			}
			if c.LastMessage != tt.wantLast {
				t.Errorf("LastMessage = %q, want %q", c.LastMessage, tt.wantLast)
			}
			if c.UnreadCount != tt.wantUnread {
				t.Errorf("UnreadCount = %d, want %d", c.UnreadCount, tt.wantUnread)
			}
		})
	}
}

func TestConversation_Validate(t *testing.T) {
	if err := (Conversation{}).Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

// =============================================================================
// EVENT TESTS
// =============================================================================

func TestNewMessageEvent_Shapes(t *testing.T) {
	for _, input := range []string{
		`{"_id":"m1","sender":"u1","receiver":"u2","content":"hello"}`,
		`{"message":{"_id":"m1","sender":"u1","receiver":"u2","content":"hello"}}`,
	} {
		var ev NewMessageEvent
		if err := json.Unmarshal([]byte(input), &ev); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", input, err)
		}
		if ev.Message.ID != "m1" || ev.Message.Content != "hello" {
			t.Errorf("Unmarshal(%s) = %+v", input, ev.Message)
		}
	}
}

func TestMessageReadEvent_Shapes(t *testing.T) {
	for _, input := range []string{`{"messageId":"m1"}`, `{"message_id":"m1"}`, `"m1"`} {
		var ev MessageReadEvent
		if err := json.Unmarshal([]byte(input), &ev); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", input, err)
		}
		if ev.MessageID != "m1" {
			t.Errorf("Unmarshal(%s) MessageID = %q", input, ev.MessageID)
		}
	}
	if err := (MessageReadEvent{}).Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}
