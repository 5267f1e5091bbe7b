// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/session"
)

func openLoaded(t *testing.T, s *Session, counterpart string, history ...model.Message) {
	t.Helper()
	token := s.OpenThread(model.User{ID: counterpart})
	_, ok := s.ApplyHistory(token, history)
	require.True(t, ok)
}

func TestSession_BasicExchange(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	openLoaded(t, s, "u2")

	s.Thread().SetDraft("hello")
	receiver, content, err := s.PrepareSend()
	require.NoError(t, err)
	assert.Equal(t, "u2", receiver)
	assert.Equal(t, "hello", content)

	sent := msg("m1", "u1", "u2", "hello")
	assert.True(t, s.ApplySent(sent))
	assert.Empty(t, s.Thread().Draft(), "input is cleared after send")

	// The server echoes the message to the sender's own room.
	res := s.ApplyIncoming(sent)
	assert.False(t, res.Appended)
	assert.True(t, res.RefreshList)
	assert.False(t, res.MarkRead)

	msgs := s.Thread().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, StatusSent, s.StatusOf(msgs[0]))
	assert.Equal(t, "sent", s.StatusOf(msgs[0]).String())
}

func TestSession_ReadReceipt(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	openLoaded(t, s, "u2")
	s.ApplySent(msg("m1", "u1", "u2", "hello"))

	assert.True(t, s.ApplyRead("m1"))
	m, ok := s.Thread().Message("m1")
	require.True(t, ok)
	assert.Equal(t, StatusSeen, s.StatusOf(m))
	assert.Equal(t, "seen", s.StatusOf(m).String())

	assert.False(t, s.ApplyRead("m1"), "second receipt changes nothing")
}

func TestSession_ReadBeforeMessageArrives(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	openLoaded(t, s, "u2")

	assert.True(t, s.ApplyRead("m9"))
	s.ApplySent(msg("m9", "u1", "u2", "late"))
	m, _ := s.Thread().Message("m9")
	assert.Equal(t, StatusSeen, s.StatusOf(m))
}

func TestSession_ReceiptsSurviveThreadSwitch(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	openLoaded(t, s, "u2")
	s.ApplyRead("m1")

	openLoaded(t, s, "u3")
	openLoaded(t, s, "u2", msg("m1", "u1", "u2", "hello"))

	m, _ := s.Thread().Message("m1")
	assert.True(t, m.Read)
	assert.Equal(t, StatusSeen, s.StatusOf(m))
}

func TestSession_HistorySeedsReceipts(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	token := s.OpenThread(model.User{ID: "u2"})

	read := msg("m1", "u1", "u2", "a")
	read.Read = true
	unread := msg("m2", "u2", "u1", "b")
	unreadIDs, ok := s.ApplyHistory(token, []model.Message{read, unread})
	require.True(t, ok)

	assert.True(t, s.Receipts().Has("m1"))
	assert.Equal(t, []string{"m2"}, unreadIDs)
}

func TestSession_IncomingForOpenThread(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	openLoaded(t, s, "u2")

	res := s.ApplyIncoming(msg("m5", "u2", "u1", "ping"))
	assert.True(t, res.Appended)
	assert.True(t, res.MarkRead)
	assert.True(t, res.RefreshList)

	again := s.ApplyIncoming(msg("m5", "u2", "u1", "ping"))
	assert.False(t, again.Appended)
	assert.False(t, again.MarkRead)
}

func TestSession_IncomingForOtherThread(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	openLoaded(t, s, "u2")

	res := s.ApplyIncoming(msg("m6", "u3", "u1", "elsewhere"))
	assert.False(t, res.Appended)
	assert.False(t, res.MarkRead)
	assert.True(t, res.RefreshList)
	assert.Equal(t, 0, s.Thread().Len())

	unrelated := s.ApplyIncoming(msg("m7", "u3", "u4", "not for us"))
	assert.Equal(t, IncomingResult{}, unrelated)
}

func TestSession_OrderingAcrossSendAndIncoming(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	openLoaded(t, s, "u2", msg("m1", "u2", "u1", "one"))

	s.ApplyIncoming(msg("m2", "u2", "u1", "two"))
	s.ApplySent(msg("m3", "u1", "u2", "three"))
	s.ApplyIncoming(msg("m3", "u1", "u2", "three"))
	s.ApplyIncoming(msg("m4", "u2", "u1", "four"))

	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, ids(s.Thread().Messages()))
}

func TestSession_PrepareSendPreconditions(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	s.Thread().SetDraft("hello")
	_, _, err := s.PrepareSend()
	assert.ErrorIs(t, err, ErrNoThread)

	token := s.OpenThread(model.User{ID: "u2"})
	s.Thread().SetDraft("hello")
	_, _, err = s.PrepareSend()
	assert.ErrorIs(t, err, ErrNoThread, "still loading")

	require.True(t, s.ApplyHistoryError(token))
	s.Thread().SetDraft("   ")
	_, _, err = s.PrepareSend()
	assert.ErrorIs(t, err, ErrEmptyDraft)
	assert.Equal(t, "   ", s.Thread().Draft(), "rejected draft is kept")
}

func TestSession_ResetIsolatesIdentities(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	first := s.Epoch()
	openLoaded(t, s, "u2", msg("m1", "u1", "u2", "secret"))
	s.ApplyRead("m1")
	dirToken := s.Directory().BeginLoad()
	s.Directory().SetFilter("eng")

	s.Reset(session.Identity{UserID: "u9"})

	assert.False(t, s.IsCurrent(first))
	assert.True(t, s.IsCurrent(s.Epoch()))
	assert.Equal(t, "u9", s.SelfID())
	assert.Equal(t, ThreadIdle, s.Thread().State())
	assert.Equal(t, 0, s.Thread().Len())
	assert.Equal(t, 0, s.Receipts().Len())
	assert.Empty(t, s.Directory().Filter())
	assert.False(t, s.Directory().Loaded())

	// The old identity's fetch result is dropped.
	assert.False(t, s.Directory().ApplyLoad(dirToken, DirectoryResult{Users: sampleUsers()}))
	assert.Empty(t, s.Directory().Users())
}

func TestSession_StatusOfIncoming(t *testing.T) {
	s := NewSession(session.Identity{UserID: "u1"})
	assert.Equal(t, StatusNone, s.StatusOf(msg("m1", "u2", "u1", "x")))
	assert.Empty(t, StatusNone.String())
}
