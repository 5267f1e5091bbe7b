// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/session"
	"github.com/hrsarthi/sarthi-tui/internal/tasks"
)

// defaultConnectTimeout bounds the websocket dial when config leaves it
// unset.
const defaultConnectTimeout = 10 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// Each creator captures the session epoch (and the load token where there
// is one) on the UI loop, then does its I/O inside the returned command.

// waitForEvent delivers the next real-time notification. Update re-arms it
// after each one.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// loadDirectory fetches users and conversations.
func (m *Model) loadDirectory() tea.Cmd {
	svc := m.backend.Service
	if svc == nil {
		return nil
	}
	epoch := m.state.Epoch()
	token := m.state.Directory().BeginLoad()
	return func() tea.Msg {
		return directoryLoadedMsg{
			epoch:  epoch,
			token:  token,
			result: svc.LoadDirectory(context.Background()),
		}
	}
}

// loadHistory opens the thread with user and fetches its history.
func (m *Model) loadHistory(user model.User) tea.Cmd {
	svc := m.backend.Service
	if svc == nil {
		return nil
	}
	epoch := m.state.Epoch()
	token := m.state.OpenThread(user)
	return func() tea.Msg {
		msgs, err := svc.LoadHistory(context.Background(), user.ID)
		return historyLoadedMsg{epoch: epoch, token: token, messages: msgs, err: err}
	}
}

// reloadThread fetches the open thread again, keeping the draft.
func (m *Model) reloadThread() tea.Cmd {
	thread := m.state.Thread()
	if thread.IsWith(thread.Counterpart().ID) {
		draft := thread.Draft()
		cmd := m.loadHistory(thread.Counterpart())
		thread.SetDraft(draft)
		return cmd
	}
	return nil
}

// sendMessage posts content to receiverID.
func (m *Model) sendMessage(receiverID, content string) tea.Cmd {
	svc := m.backend.Service
	if svc == nil {
		return nil
	}
	epoch := m.state.Epoch()
	m.sending = true
	return func() tea.Msg {
		msg, err := svc.Send(context.Background(), receiverID, content)
		return sentMsg{epoch: epoch, receiverID: receiverID, message: msg, err: err}
	}
}

// markThreadRead marks the given incoming messages of the open thread read
// in the background and refreshes the list once the server has them.
func (m *Model) markThreadRead(ids []string) tea.Cmd {
	svc := m.backend.Service
	if svc == nil {
		return nil
	}
	return m.awaitMarked(svc.MarkThreadRead(m.state.Thread().Counterpart().ID, ids))
}

// markMessageRead marks one message read in the background.
func (m *Model) markMessageRead(id string) tea.Cmd {
	svc := m.backend.Service
	if svc == nil {
		return nil
	}
	return m.awaitMarked(svc.MarkMessageRead(id))
}

func (m *Model) awaitMarked(task *tasks.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	epoch := m.state.Epoch()
	return func() tea.Msg {
		<-task.Done()
		return markedReadMsg{epoch: epoch}
	}
}

// connect opens the real-time session for userID. The outcome arrives
// through the state handler installed by startIdentity.
func (m *Model) connect(userID string) tea.Cmd {
	rt := m.backend.Realtime
	if rt == nil {
		return nil
	}
	timeout := m.connectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = rt.Connect(ctx, userID)
		return nil
	}
}

// reloadIdentity re-reads the login token. A different user switches the
// whole UI over; the same user just refreshes.
func (m *Model) reloadIdentity() tea.Cmd {
	if m.tokens == nil {
		return func() tea.Msg { return identityUnchangedMsg{} }
	}
	tokens := m.tokens
	sessions := m.sessions
	return func() tea.Msg {
		token, err := tokens()
		if err != nil {
			return identityErrorMsg{err: err}
		}
		current := sessions.Identity()
		if token == sessions.Token() && !current.IsZero() {
			return identityUnchangedMsg{}
		}
		id, err := session.FromToken(token)
		if err != nil {
			return identityErrorMsg{err: err}
		}
		sessions.Switch(id, token)
		return identityChangedMsg{identity: id, token: token}
	}
}

// notice shows text in the status bar for a while.
func (m *Model) notice(text string) tea.Cmd {
	m.status.SetNotice(text)
	return m.expireNotice()
}

// errorNotice shows an error in the status bar for a while.
func (m *Model) errorNotice(text string) tea.Cmd {
	m.status.SetError(text)
	return m.expireNotice()
}

func (m *Model) expireNotice() tea.Cmd {
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}
