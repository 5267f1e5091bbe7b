// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

// Brand - Header, selection, focused borders
var Brand = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}

// BrandDeep - Selected row background
var BrandDeep = lipgloss.AdaptiveColor{Light: "#CCFBF1", Dark: "#134E4A"}

// Accent - Names and highlights
var Accent = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Online - Connected indicator, "seen" ticks
var Online = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Offline - Disconnected indicator
var Offline = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}

// Danger - Errors
var Danger = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Unread - Unread count badge
var Unread = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// SurfaceDim - Header and status bar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Departments, previews
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Timestamps, hints
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

// Outgoing bubble - messages the current user sent
var (
	OutgoingBg     = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"}
	OutgoingFg     = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
	OutgoingBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}
)

// Incoming bubble - messages the current user received
var (
	IncomingBg     = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#313244"}
	IncomingFg     = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#E5E7EB"}
	IncomingBorder = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#585B70"}
)
