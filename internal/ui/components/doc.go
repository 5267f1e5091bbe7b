// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the render-only building blocks of the sarthi TUI.

Components hold no chat state of their own. The chat model copies what it
needs out of its chat.Session into a component on every frame and calls
View.

# Components

Header (header.go) - Title bar with the signed-in user and connection badge.
StatusBar (statusbar.go) - Bottom bar with connectivity, unread count and notices.
ConversationList (sidebar.go) - Scrollable, selectable list of conversation entries.
MessageBubble (message.go) - One message with timestamp and sent/seen indicator.
Markdown (markdown.go) - Cached glamour renderers keyed by wrap width.
Welcome (welcome.go) - Placeholder shown while no conversation is open.

# Theme Integration

All components take a *styles.Theme:

	theme := styles.NewTheme("auto")
	bar := components.NewStatusBar(theme)
	bar.SetWidth(80)
	bar.SetConn(components.ConnOnline)
	view := bar.View()
*/
package components
