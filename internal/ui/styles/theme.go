// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application.
type Theme struct {
	// Mode is the resolved "dark" or "light".
	Mode         string
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// CHROME
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderUser  lipgloss.Style
	StatusBar   lipgloss.Style
	Help        lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarFocused  lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarMeta     lipgloss.Style
	UnreadBadge     lipgloss.Style
	FilterPrompt    lipgloss.Style

	// ==========================================================================
	// THREAD
	// ==========================================================================

	ThreadTitle    lipgloss.Style
	OutgoingBubble lipgloss.Style
	IncomingBubble lipgloss.Style
	Timestamp      lipgloss.Style
	StatusSent     lipgloss.Style
	StatusSeen     lipgloss.Style
	EmptyState     lipgloss.Style
	InputContainer lipgloss.Style
	InputFocused   lipgloss.Style
	InputPrompt    lipgloss.Style

	// ==========================================================================
	// STATUS
	// ==========================================================================

	Online  lipgloss.Style
	Offline lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// NewTheme creates a theme for mode, which is "dark", "light" or "auto".
// Unknown values behave like "dark".
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "light":
		isDark = false
	case "auto":
		isDark = termenv.HasDarkBackground()
	default:
		isDark = true
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Mode:         "light",
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	if isDark {
		t.Mode = "dark"
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Brand)
	t.HeaderUser = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)
	t.SidebarFocused = t.Sidebar.
		BorderForeground(Brand)
	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)
	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(Brand).
		Background(BrandDeep).
		Bold(true).
		Padding(0, 1)
	t.SidebarMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.UnreadBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Unread).
		Bold(true).
		Padding(0, 1)
	t.FilterPrompt = lipgloss.NewStyle().
		Foreground(Accent)

	t.ThreadTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Accent)
	t.OutgoingBubble = lipgloss.NewStyle().
		Foreground(OutgoingFg).
		Background(OutgoingBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(OutgoingBorder).
		Padding(0, 1)
	t.IncomingBubble = lipgloss.NewStyle().
		Foreground(IncomingFg).
		Background(IncomingBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(IncomingBorder).
		Padding(0, 1)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StatusSent = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StatusSeen = lipgloss.NewStyle().
		Foreground(Online)
	t.EmptyState = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputFocused = t.InputContainer.
		BorderForeground(Brand)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Brand).
		Bold(true)

	t.Online = lipgloss.NewStyle().
		Foreground(Online)
	t.Offline = lipgloss.NewStyle().
		Foreground(Offline)
	t.Error = lipgloss.NewStyle().
		Foreground(Danger)
	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns, thread only
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
