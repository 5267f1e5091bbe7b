// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one message of the open thread. Outgoing messages
// sit on the right with their delivery indicator; incoming ones on the left.
type MessageBubble struct {
	Message       model.Message
	Outgoing      bool
	Status        chat.DeliveryStatus
	Width         int
	ShowTimestamp bool
	Now           time.Time
	markdown      *Markdown
	theme         *styles.Theme
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		Now:           time.Now(),
		theme:         theme,
	}
}

// SetWidth sets the width of the line the bubble is placed on.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// SetOutgoing marks the bubble as sent by the current user with status.
func (b *MessageBubble) SetOutgoing(status chat.DeliveryStatus) {
	b.Outgoing = true
	b.Status = status
}

// SetMarkdown enables markdown rendering through md. A nil md shows the
// content as typed.
func (b *MessageBubble) SetMarkdown(md *Markdown) {
	b.markdown = md
}

// View renders the bubble and its meta line.
func (b *MessageBubble) View() string {
	maxContent := maxInt(b.Width*3/4-4, 12)

	content := b.Message.Content
	if b.markdown != nil {
		content = b.markdown.Render(content, maxContent)
	}
	if strings.TrimSpace(content) == "" {
		content = " "
	}

	style := b.theme.IncomingBubble
	align := lipgloss.Left
	if b.Outgoing {
		style = b.theme.OutgoingBubble
		align = lipgloss.Right
	}
	// Width includes horizontal padding; the border is added outside it.
	bubble := style.Width(minInt(maxLineWidth(content), maxContent) + 2).Render(content)

	block := bubble
	if meta := b.renderMeta(); meta != "" {
		block = lipgloss.JoinVertical(align, bubble, meta)
	}
	if b.Width <= lipgloss.Width(block) {
		return block
	}
	return lipgloss.PlaceHorizontal(b.Width, align, block)
}

func (b *MessageBubble) renderMeta() string {
	var parts []string
	if b.ShowTimestamp {
		if stamp := util.FormatStamp(b.Message.Timestamp, b.Now); stamp != "" {
			parts = append(parts, b.theme.Timestamp.Render(stamp))
		}
	}
	if b.Outgoing {
		switch b.Status {
		case chat.StatusSeen:
			parts = append(parts, b.theme.StatusSeen.Render(b.Status.String()))
		case chat.StatusSent:
			parts = append(parts, b.theme.StatusSent.Render(b.Status.String()))
		}
	}
	return strings.Join(parts, " ")
}
