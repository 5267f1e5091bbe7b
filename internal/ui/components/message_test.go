// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
)

func testMessage(content string) model.Message {
	return model.Message{
		ID:        "m1",
		Sender:    model.UserRef{ID: "u1"},
		Receiver:  model.UserRef{ID: "u2"},
		Content:   content,
		Timestamp: time.Date(2025, 3, 4, 9, 30, 0, 0, time.Local),
	}
}

// =============================================================================
// MESSAGE BUBBLE TESTS
// =============================================================================

func TestMessageBubble_OutgoingShowsStatus(t *testing.T) {
	tests := []struct {
		status chat.DeliveryStatus
		want   string
	}{
		{chat.StatusSent, "sent"},
		{chat.StatusSeen, "seen"},
	}

	for _, tc := range tests {
		b := NewMessageBubble(testMessage("hello"), styles.NewTheme("dark"))
		b.Now = time.Date(2025, 3, 4, 12, 0, 0, 0, time.Local)
		b.SetWidth(60)
		b.SetOutgoing(tc.status)

		view := b.View()
		if !strings.Contains(view, "hello") {
			t.Errorf("View() missing content:\n%s", view)
		}
		if !strings.Contains(view, tc.want) {
			t.Errorf("View() missing status %q:\n%s", tc.want, view)
		}
		if !strings.Contains(view, "09:30") {
			t.Errorf("View() missing timestamp:\n%s", view)
		}
	}
}

func TestMessageBubble_IncomingHasNoStatus(t *testing.T) {
	b := NewMessageBubble(testMessage("hi there"), styles.NewTheme("dark"))
	b.SetWidth(60)

	view := b.View()
	if !strings.Contains(view, "hi there") {
		t.Errorf("View() missing content:\n%s", view)
	}
	if strings.Contains(view, "sent") || strings.Contains(view, "seen") {
		t.Errorf("incoming bubble shows a delivery status:\n%s", view)
	}
}

func TestMessageBubble_HideTimestamp(t *testing.T) {
	b := NewMessageBubble(testMessage("hello"), styles.NewTheme("dark"))
	b.Now = time.Date(2025, 3, 4, 12, 0, 0, 0, time.Local)
	b.ShowTimestamp = false

	if strings.Contains(b.View(), "09:30") {
		t.Error("View() shows the timestamp when disabled")
	}
}

func TestMessageBubble_EmptyContent(t *testing.T) {
	b := NewMessageBubble(testMessage(""), styles.NewTheme("dark"))
	if b.View() == "" {
		t.Error("View() should render a bubble for empty content")
	}
}

// =============================================================================
// MARKDOWN TESTS
// =============================================================================

func TestMarkdown_PlainTextUnchanged(t *testing.T) {
	md := NewMarkdown(true)
	if got := md.Render("just words", 40); got != "just words" {
		t.Errorf("Render() = %q, want unchanged text", got)
	}
}

func TestMarkdown_RendersMarkup(t *testing.T) {
	md := NewMarkdown(true)
	got := md.Render("**bold** move", 40)
	if !strings.Contains(got, "bold") {
		t.Errorf("Render() lost the text: %q", got)
	}
	if strings.Contains(got, "**") {
		t.Errorf("Render() left markup in place: %q", got)
	}
	if len(md.renderers) != 1 {
		t.Errorf("renderers cached = %d, want 1", len(md.renderers))
	}
	md.Render("_again_", 40)
	if len(md.renderers) != 1 {
		t.Errorf("renderer for the same width was rebuilt")
	}
}

func TestMarkdown_NilIsPlain(t *testing.T) {
	var md *Markdown
	if got := md.Render("**x**", 40); got != "**x**" {
		t.Errorf("nil Render() = %q", got)
	}
}

func TestTrimBlankLines(t *testing.T) {
	got := trimBlankLines("\n  \n  text  \n\n")
	if got != "  text" {
		t.Errorf("trimBlankLines() = %q, want %q", got, "  text")
	}
}
