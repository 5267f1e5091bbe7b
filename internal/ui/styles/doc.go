// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the sarthi TUI.

# Color System (colors.go)

All colors are Lip Gloss AdaptiveColor values so that one palette serves
light and dark terminals:

	Brand          - Header, selection, focused borders
	OutgoingBg/Fg  - Messages the current user sent
	IncomingBg/Fg  - Messages the current user received
	Online/Offline - Connectivity indicator
	Unread         - Unread badge in the sidebar

# Theme System (theme.go)

NewTheme takes the configured mode ("dark", "light" or "auto"). Auto asks
the terminal through termenv; the other modes force the background so that
AdaptiveColor resolves consistently.

	theme := styles.NewTheme(cfg.UI.Theme)
	row := theme.SidebarSelected.Render(name)
*/
package styles
