// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// itemHeight is the number of lines one conversation entry occupies.
const itemHeight = 2

// =============================================================================
// CONVERSATION LIST COMPONENT
// =============================================================================

// ConversationList is the sidebar: one two-line item per directory entry,
// a cursor and a scroll offset that keeps the cursor visible.
type ConversationList struct {
	entries []chat.Entry
	cursor  int
	offset  int
	// activeID is the counterpart of the open thread, marked in the list.
	activeID string
	Width    int
	Height   int
	Focused  bool
	Now      time.Time
	theme    *styles.Theme
}

// NewConversationList creates an empty list.
func NewConversationList(theme *styles.Theme) *ConversationList {
	return &ConversationList{
		Width:  32,
		Height: 20,
		Now:    time.Now(),
		theme:  theme,
	}
}

// SetSize sets the list dimensions in cells.
func (l *ConversationList) SetSize(width, height int) {
	l.Width = width
	l.Height = height
	l.clamp()
}

// SetEntries replaces the entries, keeping the cursor on the same user when
// it is still present.
func (l *ConversationList) SetEntries(entries []chat.Entry) {
	selected := l.SelectedID()
	l.entries = entries
	l.cursor = 0
	for i, e := range entries {
		if e.User.ID == selected {
			l.cursor = i
			break
		}
	}
	l.clamp()
}

// SetActive highlights the entry of the open thread.
func (l *ConversationList) SetActive(userID string) {
	l.activeID = userID
}

// Len returns the number of entries.
func (l *ConversationList) Len() int {
	return len(l.entries)
}

// Selected returns the entry under the cursor.
func (l *ConversationList) Selected() (chat.Entry, bool) {
	if l.cursor < 0 || l.cursor >= len(l.entries) {
		return chat.Entry{}, false
	}
	return l.entries[l.cursor], true
}

// SelectedID returns the user id under the cursor, or "".
func (l *ConversationList) SelectedID() string {
	e, ok := l.Selected()
	if !ok {
		return ""
	}
	return e.User.ID
}

// MoveUp moves the cursor up by n entries.
func (l *ConversationList) MoveUp(n int) {
	l.cursor -= n
	l.clamp()
}

// MoveDown moves the cursor down by n entries.
func (l *ConversationList) MoveDown(n int) {
	l.cursor += n
	l.clamp()
}

// Top moves the cursor to the first entry.
func (l *ConversationList) Top() {
	l.cursor = 0
	l.clamp()
}

// Bottom moves the cursor to the last entry.
func (l *ConversationList) Bottom() {
	l.cursor = len(l.entries) - 1
	l.clamp()
}

// PageSize is the number of entries that fit in the list.
func (l *ConversationList) PageSize() int {
	return maxInt(l.Height/itemHeight, 1)
}

func (l *ConversationList) clamp() {
	if l.cursor >= len(l.entries) {
		l.cursor = len(l.entries) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	page := l.PageSize()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+page {
		l.offset = l.cursor - page + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the visible window of entries.
func (l *ConversationList) View() string {
	if len(l.entries) == 0 {
		return ""
	}
	end := minInt(l.offset+l.PageSize(), len(l.entries))
	rows := make([]string, 0, (end-l.offset)*itemHeight)
	for i := l.offset; i < end; i++ {
		rows = append(rows, l.renderItem(l.entries[i], i == l.cursor))
	}
	return strings.Join(rows, "\n")
}

func (l *ConversationList) renderItem(e chat.Entry, selected bool) string {
	// Item style pads one cell on each side.
	inner := maxInt(l.Width-2, 8)

	name := e.User.DisplayName()
	if e.User.ID == l.activeID {
		name = "> " + name
	}
	stamp := ""
	if e.HasConversation {
		stamp = util.FormatStamp(e.LastMessageAt, l.Now)
	}
	top := spread(name, l.theme.SidebarMeta.Render(stamp), inner)

	sub := util.SingleLine(e.LastMessage)
	if sub == "" {
		sub = e.User.Department
	}
	badge := ""
	if e.UnreadCount > 0 {
		badge = l.theme.UnreadBadge.Render(strconv.Itoa(e.UnreadCount))
	}
	sub = util.TruncateWidth(sub, maxInt(inner-lipgloss.Width(badge)-1, 1))
	bottom := spread(l.theme.SidebarMeta.Render(sub), badge, inner)

	style := l.theme.SidebarItem
	if selected && l.Focused {
		style = l.theme.SidebarSelected
	}
	return style.Width(l.Width).Render(top + "\n" + bottom)
}
