// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// maxLineWidth returns the display width of the widest line of s.
func maxLineWidth(s string) int {
	widest := 0
	for _, line := range strings.Split(s, "\n") {
		widest = maxInt(widest, lipgloss.Width(line))
	}
	return widest
}

// spread places left and right at opposite ends of a line of width cells.
// left is truncated when both do not fit.
func spread(left, right string, width int) string {
	rw := lipgloss.Width(right)
	avail := width - rw - 1
	if avail < 1 {
		return util.TruncateWidth(left, width)
	}
	if lipgloss.Width(left) > avail {
		left = util.TruncateWidth(left, avail)
	}
	gap := width - lipgloss.Width(left) - rw
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
