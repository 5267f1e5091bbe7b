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

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/config"
	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/realtime"
	"github.com/hrsarthi/sarthi-tui/internal/session"
	"github.com/hrsarthi/sarthi-tui/internal/tasks"
	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeAPI struct {
	mu sync.Mutex

	users         []model.User
	usersErr      error
	conversations []model.Conversation
	history       []model.Message
	sendErr       error

	sent         []string
	markedAll    []string
	markedSingle []string
	nextID       int
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]model.User, error) {
	return f.users, f.usersErr
}

func (f *fakeAPI) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	return f.conversations, nil
}

func (f *fakeAPI) ListMessages(ctx context.Context, counterpartID string) ([]model.Message, error) {
	return f.history, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, receiverID, content string) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return model.Message{}, f.sendErr
	}
	f.sent = append(f.sent, content)
	f.nextID++
	return model.Message{
		ID:        fmt.Sprintf("m%d", f.nextID),
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
	return nil
}

func (f *fakeAPI) MarkAllRead(ctx context.Context, counterpartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedAll = append(f.markedAll, counterpartID)
	return nil
}

func (f *fakeAPI) snapshot() (sent, all, single []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...),
		append([]string(nil), f.markedAll...),
		append([]string(nil), f.markedSingle...)
}

// fakeRealtime stands in for the websocket channel.
type fakeRealtime struct {
	mu          sync.Mutex
	onMessage   func(model.Message)
	onRead      func(string)
	onState     realtime.StateFunc
	connects    []string
	disconnects int
}

func (r *fakeRealtime) OnNewMessage(fn func(model.Message)) *realtime.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onMessage = fn
	return &realtime.Subscription{}
}

func (r *fakeRealtime) OnMessageRead(fn func(string)) *realtime.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRead = fn
	return &realtime.Subscription{}
}

func (r *fakeRealtime) Connect(ctx context.Context, userID string) error {
	r.mu.Lock()
	r.connects = append(r.connects, userID)
	fn := r.onState
	r.mu.Unlock()
	if fn != nil {
		fn(true, userID, nil)
	}
	return nil
}

func (r *fakeRealtime) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnects++
}

func (r *fakeRealtime) SetStateHandler(fn realtime.StateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onState = fn
}

func (r *fakeRealtime) emitMessage(m model.Message) {
	r.mu.Lock()
	fn := r.onMessage
	r.mu.Unlock()
	fn(m)
}

func (r *fakeRealtime) emitRead(id string) {
	r.mu.Lock()
	fn := r.onRead
	r.mu.Unlock()
	fn(id)
}

// =============================================================================
// HELPERS
// =============================================================================

var testNow = time.Date(2025, 3, 4, 12, 0, 0, 0, time.Local)

func testUsers() []model.User {
	return []model.User{
		{ID: "u1", FirstName: "Priya", LastName: "Nair", Department: "HR"},
		{ID: "u2", FirstName: "Alice", LastName: "Smith", Department: "Engineering"},
		{ID: "u3", FirstName: "Bob", LastName: "Jones", Department: "Sales"},
	}
}

// runCmd executes cmd and any batch it expands to. Commands still blocked
// after a short wait (ticks) are abandoned.
func runCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, runCmd(t, c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(300 * time.Millisecond):
		return nil
	}
}

// feed sends msg through Update and keeps feeding the results of the
// returned commands until nothing is left.
func feed(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	queue := []tea.Msg{msg}
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 50, "update loop did not settle")
		next := queue[0]
		queue = queue[1:]

		// Real-time messages are applied directly: their Update path
		// re-arms waitForEvent, which must not run here.
		var cmd tea.Cmd
		switch next := next.(type) {
		case realtimeEventMsg:
			cmd = m.handleRealtime(next)
			m.syncView()
		case connStateMsg:
			m.handleConnState(next)
			m.syncView()
		default:
			updated, c := m.Update(next)
			m = updated.(Model)
			cmd = c
		}
		queue = append(queue, runCmd(t, cmd)...)
	}
	return m
}

// deliver applies every queued real-time message.
func deliver(t *testing.T, m Model) Model {
	t.Helper()
	for {
		select {
		case msg := <-m.events:
			m = feed(t, m, msg)
		default:
			return m
		}
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, api *fakeAPI) (Model, *fakeRealtime) {
	t.Helper()
	runner := tasks.NewRunner(tasks.Options{MaxConcurrent: 2, Timeout: time.Second}, nil)
	t.Cleanup(runner.Stop)

	rt := &fakeRealtime{}
	sessions := session.NewManager()
	sessions.Switch(session.Identity{UserID: "u1", Name: "Priya Nair", Role: "hr"}, "token-u1")

	cfg := config.Default()
	cfg.Realtime.Enabled = true
	m := New(Options{
		Theme:    styles.NewTheme("dark"),
		Config:   cfg,
		Sessions: sessions,
		Backend: func(token string) (Backend, error) {
			return Backend{Service: core.NewService(api, runner, nil), Realtime: rt}, nil
		},
		Now: func() time.Time { return testNow },
	})
	m = feed(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = feed(t, m, identityChangedMsg{identity: sessions.Identity(), token: sessions.Token()})
	m = deliver(t, m)
	return m, rt
}

// openAlice opens the first entry, which is Alice.
func openAlice(t *testing.T, m Model) Model {
	t.Helper()
	require.Equal(t, "u2", m.list.SelectedID())
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, core.ThreadLoaded, m.state.Thread().State())
	require.Equal(t, focusInput, m.focus)
	return m
}

// =============================================================================
// STARTUP TESTS
// =============================================================================

func TestModel_StartLoadsDirectoryAndConnects(t *testing.T) {
	m, rt := newTestModel(t, &fakeAPI{users: testUsers()})

	assert.Equal(t, []string{"u1"}, rt.connects)
	assert.Equal(t, 2, m.list.Len(), "current user is not listed")
	assert.Contains(t, m.View(), "Alice Smith")
	assert.Contains(t, m.View(), "live")
}

func TestModel_PartialFailureStillListsConversations(t *testing.T) {
	api := &fakeAPI{
		usersErr: errors.New("users down"),
		conversations: []model.Conversation{{
			User:          model.User{ID: "u3", FirstName: "Bob", LastName: "Jones"},
			LastMessage:   "ping",
			LastMessageAt: testNow.Add(-time.Hour),
		}},
	}
	m, _ := newTestModel(t, api)

	assert.Equal(t, 1, m.list.Len())
	view := m.View()
	assert.Contains(t, view, "Bob Jones")
	assert.Contains(t, view, "could not load contacts")
}

// =============================================================================
// THREAD TESTS
// =============================================================================

func TestModel_BasicExchange(t *testing.T) {
	api := &fakeAPI{users: testUsers()}
	m, rt := newTestModel(t, api)
	m = openAlice(t, m)

	m = feed(t, m, keyRunes("  hello "))
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	sent, _, _ := api.snapshot()
	assert.Equal(t, []string{"hello"}, sent)
	assert.Empty(t, m.input.Value())
	require.Equal(t, 1, m.state.Thread().Len())

	view := m.View()
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "sent")

	// The real-time echo of the same message is not shown twice.
	echo, _ := m.state.Thread().Message("m1")
	rt.emitMessage(echo)
	m = deliver(t, m)
	assert.Equal(t, 1, m.state.Thread().Len())
}

func TestModel_ReadReceiptFlipsToSeen(t *testing.T) {
	api := &fakeAPI{users: testUsers()}
	m, rt := newTestModel(t, api)
	m = openAlice(t, m)
	m = feed(t, m, keyRunes("hello"))
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotContains(t, m.View(), "seen")

	rt.emitRead("m1")
	m = deliver(t, m)

	assert.True(t, m.state.Receipts().Has("m1"))
	assert.Contains(t, m.View(), "seen")
}

func TestModel_EmptyDraftNotSent(t *testing.T) {
	api := &fakeAPI{users: testUsers()}
	m, _ := newTestModel(t, api)
	m = openAlice(t, m)

	m = feed(t, m, keyRunes("   "))
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	sent, _, _ := api.snapshot()
	assert.Empty(t, sent)
	assert.Equal(t, 0, m.state.Thread().Len())
}

func TestModel_SendFailureShownNotRetried(t *testing.T) {
	api := &fakeAPI{users: testUsers(), sendErr: errors.New("offline")}
	m, _ := newTestModel(t, api)
	m = openAlice(t, m)

	m = feed(t, m, keyRunes("hello"))
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, 0, m.state.Thread().Len())
	assert.Contains(t, m.View(), "send message: offline")
}

func TestModel_EnterWhileSendingIgnored(t *testing.T) {
	api := &fakeAPI{users: testUsers()}
	m, _ := newTestModel(t, api)
	m = openAlice(t, m)
	m = feed(t, m, keyRunes("hello"))

	updated, first := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.NotNil(t, first)
	require.True(t, m.sending)

	updated, second := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	for _, msg := range runCmd(t, second) {
		m = feed(t, m, msg)
	}
	for _, msg := range runCmd(t, first) {
		m = feed(t, m, msg)
	}

	sent, _, _ := api.snapshot()
	assert.Equal(t, []string{"hello"}, sent)
	assert.False(t, m.sending)
	assert.Equal(t, 1, m.state.Thread().Len())
}

func TestModel_SendCompletingAfterThreadSwitchKeepsNewDraft(t *testing.T) {
	api := &fakeAPI{users: testUsers()}
	m, _ := newTestModel(t, api)
	m = openAlice(t, m)
	m = feed(t, m, keyRunes("hello"))

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	results := runCmd(t, cmd)

	bob := testUsers()[2]
	m.state.OpenThread(bob)
	m.input.SetValue("draft for bob")
	for _, msg := range results {
		m = feed(t, m, msg)
	}

	assert.Equal(t, "draft for bob", m.input.Value())
	assert.True(t, m.state.Thread().IsWith("u3"))
	assert.Equal(t, 0, m.state.Thread().Len())
	assert.False(t, m.sending)
}

func TestModel_HistoryMarkedRead(t *testing.T) {
	api := &fakeAPI{
		users: testUsers(),
		history: []model.Message{
			{ID: "h1", Sender: model.UserRef{ID: "u2"}, Receiver: model.UserRef{ID: "u1"}, Content: "hi", Timestamp: testNow},
		},
	}
	m, _ := newTestModel(t, api)
	m = openAlice(t, m)

	_, all, _ := api.snapshot()
	assert.Equal(t, []string{"u2"}, all)
	assert.Contains(t, m.View(), "hi")
}

func TestModel_IncomingInOpenThreadMarkedRead(t *testing.T) {
	api := &fakeAPI{users: testUsers()}
	m, rt := newTestModel(t, api)
	m = openAlice(t, m)

	rt.emitMessage(model.Message{
		ID: "r1", Sender: model.UserRef{ID: "u2"}, Receiver: model.UserRef{ID: "u1"},
		Content: "are you there?", Timestamp: testNow,
	})
	m = deliver(t, m)

	assert.Equal(t, 1, m.state.Thread().Len())
	_, _, single := api.snapshot()
	assert.Equal(t, []string{"r1"}, single)
	assert.Contains(t, m.View(), "are you there?")
}

func TestModel_IncomingForOtherThreadNotAppended(t *testing.T) {
	api := &fakeAPI{users: testUsers()}
	m, rt := newTestModel(t, api)
	m = openAlice(t, m)

	rt.emitMessage(model.Message{
		ID: "b1", Sender: model.UserRef{ID: "u3"}, Receiver: model.UserRef{ID: "u1"},
		Content: "from bob", Timestamp: testNow,
	})
	m = deliver(t, m)

	assert.Equal(t, 0, m.state.Thread().Len())
	_, _, single := api.snapshot()
	assert.Empty(t, single)
}

// =============================================================================
// FILTER TESTS
// =============================================================================

func TestModel_FilterByDepartment(t *testing.T) {
	m, _ := newTestModel(t, &fakeAPI{users: testUsers()})

	m = feed(t, m, keyRunes("/"))
	require.Equal(t, focusFilter, m.focus)
	m = feed(t, m, keyRunes("eng"))

	require.Equal(t, 1, m.list.Len())
	assert.Equal(t, "u2", m.list.SelectedID())

	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, focusSidebar, m.focus)
	assert.Equal(t, 2, m.list.Len())
}

// =============================================================================
// IDENTITY TESTS
// =============================================================================

func TestModel_IdentitySwitchDiscardsState(t *testing.T) {
	api := &fakeAPI{users: testUsers()}
	m, rt := newTestModel(t, api)
	m = openAlice(t, m)
	m = feed(t, m, keyRunes("hello"))
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	rt.emitRead("m1")
	m = deliver(t, m)
	require.Equal(t, 1, m.state.Receipts().Len())

	oldEpoch := m.state.Epoch()
	m = feed(t, m, identityChangedMsg{identity: session.Identity{UserID: "u9", Name: "Ravi"}, token: "token-u9"})
	m = deliver(t, m)

	assert.Equal(t, core.ThreadIdle, m.state.Thread().State())
	assert.Equal(t, 0, m.state.Receipts().Len())
	assert.Equal(t, "u9", m.state.SelfID())
	assert.Equal(t, 1, rt.disconnects)
	assert.Equal(t, []string{"u1", "u9"}, rt.connects)
	assert.NotContains(t, m.View(), "hello")

	// Late results for the previous identity are dropped.
	m = feed(t, m, historyLoadedMsg{epoch: oldEpoch, token: 1, messages: []model.Message{
		{ID: "x1", Sender: model.UserRef{ID: "u2"}, Receiver: model.UserRef{ID: "u1"}, Content: "stale"},
	}})
	m = feed(t, m, realtimeEventMsg{epoch: oldEpoch, event: core.MessageSeen{MessageID: "m1"}})
	assert.Equal(t, 0, m.state.Thread().Len())
	assert.False(t, m.state.Receipts().Has("m1"))
}

func TestModel_NotSignedIn(t *testing.T) {
	m := New(Options{Theme: styles.NewTheme("dark"), Config: config.Default()})
	m = feed(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = feed(t, m, identityChangedMsg{})

	assert.Contains(t, m.View(), "not signed in")
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestModel_QuitTearsDown(t *testing.T) {
	m, rt := newTestModel(t, &fakeAPI{users: testUsers()})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(Model)
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.Equal(t, 1, rt.disconnects)
	assert.Empty(t, m.View())
}

func TestModel_ConfigChangedAppliesUI(t *testing.T) {
	m, _ := newTestModel(t, &fakeAPI{users: testUsers()})

	cfg := config.Default()
	cfg.UI.ShowTimestamps = false
	cfg.UI.Theme = "light"
	m = feed(t, m, ConfigChangedMsg{Config: cfg})

	assert.False(t, m.ui.ShowTimestamps)
	assert.False(t, m.theme.IsDark)
	assert.Contains(t, m.View(), "Settings reloaded")

	m = feed(t, m, ConfigChangedMsg{Err: errors.New("bad toml")})
	assert.Contains(t, m.View(), "config reload failed")
}

func TestModel_ConnectionLostShown(t *testing.T) {
	m, _ := newTestModel(t, &fakeAPI{users: testUsers()})
	m = feed(t, m, connStateMsg{epoch: m.state.Epoch(), connected: false, err: errors.New("eof")})
	assert.Contains(t, m.View(), "offline")
}
