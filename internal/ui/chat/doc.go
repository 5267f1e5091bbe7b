// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view of the sarthi TUI.

The Model is a Bubble Tea model that owns one core chat Session (package
internal/chat) and drives it from Update. All I/O runs inside tea.Cmds
created in update.go; their results come back as messages and are applied
on the Update loop.

# Layout

	+-----------------------------------------------------------+
	| HR SARTHI / Alice Smith                    Priya Nair (hr) |
	+----------------+------------------------------------------+
	| / filter       |                       +---------------+  |
	| Alice Smith 9:05| +--------------+     | hello         |  |
	| see you   [3]  | | hi there     |     +---------------+  |
	| Bob Jones      | +--------------+           09:06 seen   |
	| Sales          | +------------------------------------+   |
	|                | | > Type a message...                |   |
	+----------------+------------------------------------------+
	| ● live  3 unread            tab focus  / filter  ? help  |
	+-----------------------------------------------------------+

Terminals narrower than 60 columns show one pane at a time.

# Identity

Each identity gets its own Backend (REST service and real-time channel)
from the BackendFactory. Switching identity tears the old one down and
resets the Session before anything is requested for the new user. Results
of work started under the old identity carry the old epoch and are dropped.

# Real-time events

The channel's callbacks push messages into a buffered channel that a
waitForEvent command drains one at a time, so handlers never touch the
model directly.
*/
package chat
