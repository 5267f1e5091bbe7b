// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: product name on the left, the signed-in user
// and the open conversation on the right.
type Header struct {
	Title    string
	UserName string
	Role     string
	// Peer is the display name of the open conversation, if any.
	Peer  string
	Width int
	theme *styles.Theme
}

// NewHeader creates a header with the default title.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "HR SARTHI",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetUser updates the signed-in user shown on the right.
func (h *Header) SetUser(name, role string) {
	h.UserName = name
	h.Role = role
}

// SetPeer updates the open conversation name.
func (h *Header) SetPeer(name string) {
	h.Peer = name
}

// View renders the header.
func (h *Header) View() string {
	left := h.theme.HeaderTitle.Render(h.Title)
	if h.Peer != "" {
		left += h.theme.Muted.Render("  /  ") + h.theme.ThreadTitle.Render(h.Peer)
	}

	right := ""
	if h.UserName != "" {
		right = h.UserName
		if h.Role != "" {
			right += " (" + h.Role + ")"
		}
		right = h.theme.HeaderUser.Render(right)
	}

	inner := maxInt(h.Width-2, 10)
	return h.theme.Header.Width(h.Width).Render(spread(left, right, inner))
}
