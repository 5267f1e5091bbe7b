// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// =============================================================================
// CONNECTION STATE
// =============================================================================

// ConnState is the real-time channel state shown to the user.
type ConnState int

const (
	ConnOffline ConnState = iota
	ConnConnecting
	ConnOnline
	// ConnDisabled means real-time updates are turned off in config.
	ConnDisabled
)

// String returns the display string for the state.
func (c ConnState) String() string {
	switch c {
	case ConnOffline:
		return "offline"
	case ConnConnecting:
		return "connecting"
	case ConnOnline:
		return "live"
	case ConnDisabled:
		return "realtime off"
	default:
		return "unknown"
	}
}

// Icon returns a shape for the state, distinct without color.
func (c ConnState) Icon() string {
	switch c {
	case ConnOnline:
		return "●"
	case ConnConnecting:
		return "◌"
	case ConnDisabled:
		return "-"
	default:
		return "○"
	}
}

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom line: connectivity and unread count on the left,
// a transient notice or the shortcut hints on the right.
type StatusBar struct {
	Conn      ConnState
	Unread    int
	Notice    string
	ErrorText string
	Shortcuts string
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar in the offline state.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Conn:      ConnOffline,
		Shortcuts: "tab focus  / filter  enter open  ? help",
		Width:     80,
		theme:     theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetConn updates the connection indicator.
func (s *StatusBar) SetConn(state ConnState) {
	s.Conn = state
}

// SetUnread updates the unread counter.
func (s *StatusBar) SetUnread(n int) {
	s.Unread = n
}

// SetNotice shows an informational message until cleared.
func (s *StatusBar) SetNotice(text string) {
	s.Notice = text
	s.ErrorText = ""
}

// SetError shows an error message until cleared.
func (s *StatusBar) SetError(text string) {
	s.ErrorText = text
	s.Notice = ""
}

// Clear removes any notice or error.
func (s *StatusBar) Clear() {
	s.Notice = ""
	s.ErrorText = ""
}

// View renders the status bar.
func (s *StatusBar) View() string {
	connStyle := s.theme.Offline
	if s.Conn == ConnOnline {
		connStyle = s.theme.Online
	}
	left := []string{connStyle.Render(s.Conn.Icon() + " " + s.Conn.String())}
	if s.Unread > 0 {
		left = append(left, s.theme.UnreadBadge.Render(strconv.Itoa(s.Unread))+" unread")
	}

	// StatusBar style pads one cell on each side.
	inner := maxInt(s.Width-2, 10)
	room := maxInt(inner*2/3, 8)

	right := s.theme.Help.Render(util.TruncateWidth(s.Shortcuts, room))
	switch {
	case s.ErrorText != "":
		right = s.theme.Error.Render(util.TruncateWidth(util.SingleLine(s.ErrorText), room))
	case s.Notice != "":
		right = util.TruncateWidth(util.SingleLine(s.Notice), room)
	}
	return s.theme.StatusBar.Width(s.Width).Render(spread(strings.Join(left, "  "), right, inner))
}
