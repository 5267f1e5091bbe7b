// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/realtime"
	"github.com/hrsarthi/sarthi-tui/internal/session"
	"github.com/hrsarthi/sarthi-tui/internal/tasks"
)

// fakeAPI records calls and returns canned results.
type fakeAPI struct {
	mu sync.Mutex

	users            []model.User
	usersErr         error
	conversations    []model.Conversation
	conversationsErr error
	history          []model.Message
	sendErr          error
	markErr          error

	calls        []string
	markedAll    []string
	markedSingle []string
	nextID       int
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]model.User, error) {
	f.record("users")
	return f.users, f.usersErr
}

func (f *fakeAPI) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	f.record("conversations")
	return f.conversations, f.conversationsErr
}

func (f *fakeAPI) ListMessages(ctx context.Context, counterpartID string) ([]model.Message, error) {
	f.record("messages")
	return f.history, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, receiverID, content string) (model.Message, error) {
	f.record("send")
	if f.sendErr != nil {
		return model.Message{}, f.sendErr
	}
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("m%d", f.nextID)
	f.mu.Unlock()
	return model.Message{
		ID:        id,
		Sender:    model.UserRef{ID: "u1"},
		Receiver:  model.UserRef{ID: receiverID},
		Content:   content,
		Timestamp: time.Now(),
	}, nil
}

func (f *fakeAPI) MarkRead(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedSingle = append(f.markedSingle, messageID)
	return f.markErr
}

func (f *fakeAPI) MarkAllRead(ctx context.Context, counterpartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedAll = append(f.markedAll, counterpartID)
	return f.markErr
}

// fakeNotifier keeps the registered callbacks so tests can fire them.
type fakeNotifier struct {
	onMessage func(model.Message)
	onRead    func(string)
}

func (n *fakeNotifier) OnNewMessage(fn func(model.Message)) *realtime.Subscription {
	n.onMessage = fn
	return &realtime.Subscription{}
}

func (n *fakeNotifier) OnMessageRead(fn func(string)) *realtime.Subscription {
	n.onRead = fn
	return &realtime.Subscription{}
}

func newTestService(t *testing.T, api API) (*Service, *tasks.Runner) {
	t.Helper()
	runner := tasks.NewRunner(tasks.Options{MaxConcurrent: 2, Timeout: time.Second}, nil)
	t.Cleanup(runner.Stop)
	return NewService(api, runner, nil).WithTimeout(time.Second), runner
}

func waitRunner(t *testing.T, r *tasks.Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))
}

// =============================================================================
// DIRECTORY LOAD TESTS
// =============================================================================

func TestService_LoadDirectoryAllSettled(t *testing.T) {
	api := &fakeAPI{
		usersErr:      errors.New("users down"),
		conversations: []model.Conversation{{User: model.User{ID: "u2", FirstName: "Alice"}}},
	}
	svc, _ := newTestService(t, api)

	res := svc.LoadDirectory(context.Background())
	assert.True(t, api.called("users"))
	assert.True(t, api.called("conversations"), "sibling call must still be made")
	assert.Error(t, res.UsersErr)
	assert.NoError(t, res.ConversationsErr)
	require.Len(t, res.Conversations, 1)

	d := NewDirectory("u1")
	d.ApplyLoad(d.BeginLoad(), res)
	assert.False(t, d.Loading())
	assert.Len(t, d.Entries(), 1)
}

func TestService_LoadDirectoryBothHalves(t *testing.T) {
	api := &fakeAPI{
		users:         sampleUsers(),
		conversations: []model.Conversation{{User: model.User{ID: "u3"}}},
	}
	svc, _ := newTestService(t, api)

	res := svc.LoadDirectory(context.Background())
	assert.NoError(t, res.UsersErr)
	assert.NoError(t, res.ConversationsErr)
	assert.Len(t, res.Users, 4)
	assert.Len(t, res.Conversations, 1)
}

// =============================================================================
// SEND AND MARK-READ TESTS
// =============================================================================

func TestService_SendFlow(t *testing.T) {
	api := &fakeAPI{}
	svc, _ := newTestService(t, api)
	s := NewSession(session.Identity{UserID: "u1"})

	token := s.OpenThread(model.User{ID: "u2"})
	history, err := svc.LoadHistory(context.Background(), "u2")
	require.NoError(t, err)
	s.ApplyHistory(token, history)

	s.Thread().SetDraft("  hello ")
	receiver, content, err := s.PrepareSend()
	require.NoError(t, err)

	sent, err := svc.Send(context.Background(), receiver, content)
	require.NoError(t, err)
	assert.Equal(t, "hello", sent.Content)
	assert.True(t, s.ApplySent(sent))
	assert.Empty(t, s.Thread().Draft())
}

func TestService_SendFailureKeepsDraft(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("offline")}
	svc, _ := newTestService(t, api)
	s := NewSession(session.Identity{UserID: "u1"})
	openLoaded(t, s, "u2")
	s.Thread().SetDraft("hello")

	receiver, content, err := s.PrepareSend()
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), receiver, content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send message")
	assert.Equal(t, "hello", s.Thread().Draft())
	assert.Equal(t, 0, s.Thread().Len())
}

func TestService_MarkThreadReadInBackground(t *testing.T) {
	api := &fakeAPI{markErr: errors.New("ignored")}
	svc, runner := newTestService(t, api)

	task := svc.MarkThreadRead("u2", []string{"m1", "m2"})
	require.NotNil(t, task)
	waitRunner(t, runner)

	assert.Equal(t, []string{"u2"}, api.markedAll)
	assert.Equal(t, tasks.TaskStatusFailed, task.Status(), "failure is recorded, not surfaced")
	assert.Equal(t, 1, runner.Stats().Failed)

	assert.Nil(t, svc.MarkThreadRead("u2", nil))
	assert.Nil(t, svc.MarkMessageRead(""))
}

func TestService_MarkMessageRead(t *testing.T) {
	api := &fakeAPI{}
	svc, runner := newTestService(t, api)

	task := svc.MarkMessageRead("m7")
	require.NotNil(t, task)
	waitRunner(t, runner)
	assert.Equal(t, []string{"m7"}, api.markedSingle)
	assert.Equal(t, tasks.TaskStatusComplete, task.Status())
}

// =============================================================================
// BIND TESTS
// =============================================================================

func TestService_BindForwardsEvents(t *testing.T) {
	svc, _ := newTestService(t, &fakeAPI{})
	n := &fakeNotifier{}

	var got []Event
	group := svc.Bind(n, func(e Event) { got = append(got, e) })
	assert.Equal(t, 2, group.Len())

	n.onMessage(msg("m1", "u2", "u1", "hi"))
	n.onRead("m1")

	require.Len(t, got, 2)
	arrived, ok := got[0].(MessageArrived)
	require.True(t, ok)
	assert.Equal(t, "m1", arrived.Message.ID)
	seen, ok := got[1].(MessageSeen)
	require.True(t, ok)
	assert.Equal(t, "m1", seen.MessageID)

	group.UnsubscribeAll()
	assert.Equal(t, 0, group.Len())
}
