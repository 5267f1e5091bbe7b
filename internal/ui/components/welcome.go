// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// =============================================================================
// WELCOME PANEL
// =============================================================================

// Welcome fills the thread pane while no conversation is open.
type Welcome struct {
	userName string
	contacts int
	width    int
	height   int
	theme    *styles.Theme
}

// NewWelcome creates the panel.
func NewWelcome(theme *styles.Theme) *Welcome {
	return &Welcome{theme: theme}
}

// SetSize sets the pane dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// SetUser sets the greeting name.
func (w *Welcome) SetUser(name string) {
	w.userName = name
}

// SetContacts sets the number of people in the directory.
func (w *Welcome) SetContacts(n int) {
	w.contacts = n
}

// View renders the panel centered in the pane.
func (w *Welcome) View() string {
	greeting := "Welcome to HR SARTHI"
	if w.userName != "" {
		greeting = "Welcome, " + w.userName
	}
	lines := []string{
		w.theme.HeaderTitle.Render(greeting),
		"",
		w.theme.EmptyState.Render("Select a conversation to start messaging."),
	}
	if w.contacts > 0 {
		lines = append(lines, w.theme.Muted.Render(util.Plural(w.contacts, "contact")+" in the directory"))
	}
	block := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if w.width <= 0 || w.height <= 0 {
		return block
	}
	return lipgloss.Place(w.width, w.height, lipgloss.Center, lipgloss.Center, block)
}
