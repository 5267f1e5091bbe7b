// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	core "github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/config"
	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/session"
)

// Every message produced by asynchronous work carries the session epoch it
// was started under. Update drops results whose epoch is no longer current,
// so nothing loaded for a previous identity reaches the new one.

// =============================================================================
// LOAD MESSAGES
// =============================================================================

// directoryLoadedMsg delivers the users/conversations fetch.
type directoryLoadedMsg struct {
	epoch  uint64
	token  uint64
	result core.DirectoryResult
}

// historyLoadedMsg delivers a thread history fetch.
type historyLoadedMsg struct {
	epoch    uint64
	token    uint64
	messages []model.Message
	err      error
}

// markedReadMsg reports that a background mark-as-read task finished.
type markedReadMsg struct {
	epoch uint64
}

// =============================================================================
// SEND MESSAGES
// =============================================================================

// sentMsg delivers the outcome of a send.
type sentMsg struct {
	epoch      uint64
	receiverID string
	message    model.Message
	err        error
}

// =============================================================================
// REAL-TIME MESSAGES
// =============================================================================

// realtimeEventMsg wraps a chat event forwarded from the channel.
type realtimeEventMsg struct {
	epoch uint64
	event core.Event
}

// connStateMsg reports a channel state change.
type connStateMsg struct {
	epoch     uint64
	connected bool
	err       error
}

// =============================================================================
// IDENTITY AND CONFIG MESSAGES
// =============================================================================

// identityChangedMsg switches the UI to a new signed-in user.
type identityChangedMsg struct {
	identity session.Identity
	token    string
}

// identityUnchangedMsg means a reload found the same user; the data is
// refreshed in place.
type identityUnchangedMsg struct{}

// identityErrorMsg reports a failed login reload.
type identityErrorMsg struct {
	err error
}

// ConfigChangedMsg carries a reloaded configuration from the file watcher.
// A non-nil Err leaves the current configuration in place.
type ConfigChangedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// UI MESSAGES
// =============================================================================

// noticeExpiredMsg clears the status-bar notice it was scheduled for.
type noticeExpiredMsg struct {
	seq int
}
