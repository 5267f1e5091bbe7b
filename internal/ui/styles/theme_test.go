// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme_Modes(t *testing.T) {
	tests := []struct {
		mode     string
		wantDark bool
	}{
		{"dark", true},
		{"light", false},
		{"LIGHT", false},
		{"unknown", true},
	}
	for _, tt := range tests {
		theme := NewTheme(tt.mode)
		if theme.IsDark != tt.wantDark {
			t.Errorf("NewTheme(%q).IsDark = %v, want %v", tt.mode, theme.IsDark, tt.wantDark)
		}
		if lipgloss.HasDarkBackground() != tt.wantDark {
			t.Errorf("NewTheme(%q) did not set the lipgloss background", tt.mode)
		}
	}
	NewTheme("dark")
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme("dark")
	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"Sidebar", theme.Sidebar},
		{"SidebarSelected", theme.SidebarSelected},
		{"OutgoingBubble", theme.OutgoingBubble},
		{"IncomingBubble", theme.IncomingBubble},
		{"StatusSeen", theme.StatusSeen},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
	}
	for _, s := range styles {
		if s.style.Render("test") == "" {
			t.Errorf("%s style should be initialized", s.name)
		}
	}
}

func TestBubblesHaveBorders(t *testing.T) {
	theme := NewTheme("dark")
	if theme.OutgoingBubble.GetBorderStyle() != lipgloss.RoundedBorder() {
		t.Error("OutgoingBubble should have a rounded border")
	}
	if theme.IncomingBubble.GetBorderStyle() != lipgloss.RoundedBorder() {
		t.Error("IncomingBubble should have a rounded border")
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme("dark")
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 40)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: layout = %v, want %v", tt.width, got, tt.want)
		}
	}
}
