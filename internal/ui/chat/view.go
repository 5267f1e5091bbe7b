// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	core "github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/ui/components"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// render lays out header, body and status bar. The body is the sidebar
// next to the thread pane, or one of them on narrow terminals.
func (m Model) render() string {
	m.header.SetWidth(m.width)
	m.status.SetWidth(m.width)

	bodyH := m.bodyHeight()
	var body string
	if m.showHelp {
		body = m.renderHelp(m.width, bodyH)
	} else {
		sidebarW, threadW := m.paneWidths()
		var panes []string
		if sidebarW > 0 {
			panes = append(panes, m.renderSidebar(sidebarW, bodyH))
		}
		if threadW > 0 {
			panes = append(panes, m.renderThread(threadW, bodyH))
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, panes...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.status.View())
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar(width, height int) string {
	style := m.theme.Sidebar
	if m.focus != focusInput {
		style = m.theme.SidebarFocused
	}

	var filterLine string
	if m.focus == focusFilter || m.filter.Value() != "" {
		filterLine = m.filter.View()
	} else {
		filterLine = m.theme.FilterPrompt.Render("/") + m.theme.Muted.Render(" filter")
	}

	dir := m.state.Directory()
	var content string
	switch {
	case m.list.Len() > 0:
		content = m.list.View()
	case dir.Loading():
		content = m.spinner.View() + " Loading contacts..."
	case dir.Filter() != "":
		content = m.theme.EmptyState.Render("No matches for \"" + dir.Filter() + "\"")
	default:
		content = m.theme.EmptyState.Render("No contacts yet")
	}

	inner := lipgloss.JoinVertical(lipgloss.Left, filterLine, content)
	return style.Width(maxInt(width-2, 1)).Height(maxInt(height-2, 1)).Render(inner)
}

// =============================================================================
// THREAD PANE
// =============================================================================

func (m Model) renderThread(width, height int) string {
	thread := m.state.Thread()
	if thread.State() == core.ThreadIdle {
		return m.welcome.View()
	}

	msgH := maxInt(height-inputHeight, 1)
	var messages string
	switch {
	case thread.State() == core.ThreadLoading:
		messages = lipgloss.Place(width, msgH, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading messages...")
	case thread.Len() == 0:
		messages = lipgloss.Place(width, msgH, lipgloss.Center, lipgloss.Center,
			m.theme.EmptyState.Render("No messages yet. Say hello!"))
	default:
		messages = m.viewport.View()
	}

	inputStyle := m.theme.InputContainer
	if m.focus == focusInput {
		inputStyle = m.theme.InputFocused
	}
	input := inputStyle.Width(maxInt(width-2, 1)).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, messages, input)
}

// renderMessages renders the open thread for the viewport.
func (m Model) renderMessages() string {
	thread := m.state.Thread()
	if thread.Len() == 0 {
		return ""
	}
	self := m.state.SelfID()
	now := m.now()

	var md *components.Markdown
	if m.ui.RenderMarkdown {
		md = m.markdown
	}

	parts := make([]string, 0, thread.Len())
	for _, msg := range thread.Messages() {
		b := components.NewMessageBubble(msg, m.theme)
		b.SetWidth(m.viewport.Width)
		b.ShowTimestamp = m.ui.ShowTimestamps
		b.Now = now
		b.SetMarkdown(md)
		if msg.IsFrom(self) {
			b.SetOutgoing(m.state.StatusOf(msg))
		}
		parts = append(parts, b.View())
	}
	return strings.Join(parts, "\n")
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m Model) renderHelp(width, height int) string {
	m.help.ShowAll = true
	m.help.Width = width
	block := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.HeaderTitle.Render("Keyboard shortcuts"),
		"",
		m.help.View(m.keyMap),
		"",
		m.theme.Muted.Render("Press any key to close"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, block)
}
