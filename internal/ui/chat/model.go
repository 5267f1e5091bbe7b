// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	core "github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/config"
	"github.com/hrsarthi/sarthi-tui/internal/realtime"
	"github.com/hrsarthi/sarthi-tui/internal/session"
	"github.com/hrsarthi/sarthi-tui/internal/ui/components"
	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
)

// eventBuffer is how many real-time notifications may queue up before the
// channel's reader waits for the UI loop.
const eventBuffer = 256

// noticeTTL is how long a status-bar notice stays up.
const noticeTTL = 4 * time.Second

// =============================================================================
// WIRING
// =============================================================================

// Realtime is the real-time channel as the TUI drives it.
type Realtime interface {
	core.Notifier
	Connect(ctx context.Context, userID string) error
	Disconnect()
	SetStateHandler(fn realtime.StateFunc)
}

// Backend is the I/O bound to one signed-in identity.
type Backend struct {
	Service *core.Service
	// Realtime is nil when real-time updates are disabled.
	Realtime Realtime
}

// BackendFactory builds the Backend for a bearer token. It is called once
// per identity; the previous Backend is torn down first.
type BackendFactory func(token string) (Backend, error)

// TokenSource returns the current login token, e.g. from the token store.
type TokenSource func() (string, error)

// Options wires the model.
type Options struct {
	Theme    *styles.Theme
	Config   *config.Config
	Sessions *session.Manager
	Backend  BackendFactory
	// Tokens enables reloading the login with the refresh key. Optional.
	Tokens TokenSource
	Logger *zap.Logger
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// focus is the pane receiving keys.
type focus int

const (
	focusSidebar focus = iota
	focusInput
	focusFilter
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. It owns the
// core.Session; every state change happens inside Update.
type Model struct {
	// Configuration
	theme           *styles.Theme
	ui              config.UIConfig
	realtimeEnabled bool
	connectTimeout  time.Duration
	keyMap          KeyMap
	help            help.Model
	showHelp        bool

	// Dimensions
	width  int
	height int
	focus  focus

	// Wiring
	sessions *session.Manager
	factory  BackendFactory
	tokens   TokenSource
	logger   *zap.Logger
	now      func() time.Time

	// Chat state and the I/O of the current identity
	state   *core.Session
	backend Backend
	group   *realtime.Group
	events  chan tea.Msg

	// Components
	header   *components.Header
	list     *components.ConversationList
	status   *components.StatusBar
	welcome  *components.Welcome
	markdown *components.Markdown

	// Widgets
	viewport viewport.Model
	input    textinput.Model
	filter   textinput.Model
	spinner  spinner.Model

	renderedRevision uint64
	renderedWidth    int
	noticeSeq        int
	sending          bool
	quitting         bool
}

// New creates the chat model. Nothing is loaded until Init runs.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewManager()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096

	fi := textinput.New()
	fi.Prompt = "/ "
	fi.Placeholder = "name or department"
	fi.CharLimit = 128

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	return Model{
		theme:           theme,
		ui:              cfg.UI,
		realtimeEnabled: cfg.Realtime.Enabled,
		connectTimeout:  cfg.Realtime.HandshakeTimeout(),
		keyMap:          DefaultKeyMap(),
		help:            help.New(),
		sessions:        sessions,
		factory:         opts.Backend,
		tokens:          opts.Tokens,
		logger:          logger.Named("tui"),
		now:             now,
		state:           core.NewSession(sessions.Identity()),
		events:          make(chan tea.Msg, eventBuffer),
		header:          components.NewHeader(theme),
		list:            components.NewConversationList(theme),
		status:          components.NewStatusBar(theme),
		welcome:         components.NewWelcome(theme),
		markdown:        components.NewMarkdown(theme.IsDark),
		viewport:        vp,
		input:           ti,
		filter:          fi,
		spinner:         sp,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the session for the identity held by the session manager.
func (m Model) Init() tea.Cmd {
	identity := m.sessions.Identity()
	token := m.sessions.Token()
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForEvent(m.events),
		func() tea.Msg { return identityChangedMsg{identity: identity, token: token} },
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg.Width, msg.Height)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)

	case identityChangedMsg:
		cmd = m.startIdentity(msg.identity, msg.token)

	case identityUnchangedMsg:
		cmd = tea.Batch(m.loadDirectory(), m.reloadThread(), m.notice("Refreshed"))

	case identityErrorMsg:
		m.logger.Warn("reload login failed", zap.Error(msg.err))
		cmd = m.errorNotice("reload login: " + msg.err.Error())

	case directoryLoadedMsg:
		cmd = m.handleDirectoryLoaded(msg)

	case historyLoadedMsg:
		cmd = m.handleHistoryLoaded(msg)

	case sentMsg:
		cmd = m.handleSent(msg)

	case markedReadMsg:
		if m.state.IsCurrent(msg.epoch) {
			cmd = m.loadDirectory()
		}

	case realtimeEventMsg:
		cmd = tea.Batch(m.handleRealtime(msg), waitForEvent(m.events))

	case connStateMsg:
		m.handleConnState(msg)
		cmd = waitForEvent(m.events)

	case ConfigChangedMsg:
		cmd = m.handleConfigChanged(msg)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.status.Clear()
		}
	}

	m.syncView()
	return m, cmd
}

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// =============================================================================
// IDENTITY
// =============================================================================

// startIdentity tears down the previous identity and starts over for id.
// The session reset happens before anything for id is requested, so no
// selected conversation, message or read receipt survives the switch.
func (m *Model) startIdentity(id session.Identity, token string) tea.Cmd {
	m.teardown()
	m.state.Reset(id)
	m.sending = false

	m.focus = focusSidebar
	m.input.Reset()
	m.input.Blur()
	m.filter.Reset()
	m.filter.Blur()
	m.list.SetEntries(nil)
	m.list.SetActive("")
	m.viewport.SetContent("")
	m.renderedRevision = 0
	m.header.SetUser(id.DisplayName(), id.Role)
	m.header.SetPeer("")
	m.welcome.SetUser(id.DisplayName())
	m.status.Clear()

	if id.IsZero() {
		m.status.SetConn(components.ConnOffline)
		m.status.SetError("not signed in: run sarthi login <token>")
		return nil
	}
	if m.factory == nil {
		m.status.SetError("no backend configured")
		return nil
	}

	backend, err := m.factory(token)
	if err != nil {
		m.logger.Error("create backend failed", zap.Error(err))
		m.status.SetError(err.Error())
		return nil
	}
	m.backend = backend
	m.logger.Info("session started", zap.String("user_id", id.UserID), zap.Uint64("epoch", m.state.Epoch()))

	cmds := []tea.Cmd{m.loadDirectory()}
	if backend.Realtime == nil || !m.realtimeEnabled {
		m.status.SetConn(components.ConnDisabled)
		return tea.Batch(cmds...)
	}

	epoch := m.state.Epoch()
	events := m.events
	backend.Realtime.SetStateHandler(func(connected bool, _ string, err error) {
		events <- connStateMsg{epoch: epoch, connected: connected, err: err}
	})
	m.group = backend.Service.Bind(backend.Realtime, func(e core.Event) {
		events <- realtimeEventMsg{epoch: epoch, event: e}
	})
	m.status.SetConn(components.ConnConnecting)
	cmds = append(cmds, m.connect(id.UserID))
	return tea.Batch(cmds...)
}

// teardown releases the real-time registrations and connection of the
// current identity.
func (m *Model) teardown() {
	if m.group != nil {
		m.group.UnsubscribeAll()
		m.group = nil
	}
	if m.backend.Realtime != nil {
		m.backend.Realtime.SetStateHandler(nil)
		m.backend.Realtime.Disconnect()
	}
	m.backend = Backend{}
}

func (m *Model) quit() tea.Cmd {
	m.teardown()
	m.quitting = true
	return tea.Quit
}

// =============================================================================
// ASYNC RESULTS
// =============================================================================

func (m *Model) handleDirectoryLoaded(msg directoryLoadedMsg) tea.Cmd {
	if !m.state.IsCurrent(msg.epoch) {
		return nil
	}
	if !m.state.Directory().ApplyLoad(msg.token, msg.result) {
		return nil
	}
	res := msg.result
	switch {
	case res.UsersErr != nil && res.ConversationsErr != nil:
		return m.errorNotice("could not load contacts or conversations")
	case res.UsersErr != nil:
		return m.errorNotice("could not load contacts")
	case res.ConversationsErr != nil:
		return m.errorNotice("could not load conversations")
	}
	return nil
}

func (m *Model) handleHistoryLoaded(msg historyLoadedMsg) tea.Cmd {
	if !m.state.IsCurrent(msg.epoch) {
		return nil
	}
	if msg.err != nil {
		if m.state.ApplyHistoryError(msg.token) {
			return m.errorNotice("could not load messages")
		}
		return nil
	}
	unread, ok := m.state.ApplyHistory(msg.token, msg.messages)
	if !ok {
		return nil
	}
	return m.markThreadRead(unread)
}

func (m *Model) handleSent(msg sentMsg) tea.Cmd {
	if !m.state.IsCurrent(msg.epoch) {
		return nil
	}
	m.sending = false
	if msg.err != nil {
		return m.errorNotice(msg.err.Error())
	}
	// The draft belongs to whichever thread is open now.
	if m.state.Thread().IsWith(msg.receiverID) {
		m.state.ApplySent(msg.message)
		m.input.Reset()
	}
	return m.loadDirectory()
}

func (m *Model) handleRealtime(msg realtimeEventMsg) tea.Cmd {
	if !m.state.IsCurrent(msg.epoch) {
		return nil
	}
	switch ev := msg.event.(type) {
	case core.MessageArrived:
		res := m.state.ApplyIncoming(ev.Message)
		var cmds []tea.Cmd
		if res.MarkRead {
			cmds = append(cmds, m.markMessageRead(ev.Message.ID))
		}
		if res.RefreshList {
			cmds = append(cmds, m.loadDirectory())
		}
		return tea.Batch(cmds...)
	case core.MessageSeen:
		m.state.ApplyRead(ev.MessageID)
	}
	return nil
}

func (m *Model) handleConnState(msg connStateMsg) {
	if !m.state.IsCurrent(msg.epoch) {
		return
	}
	if msg.connected {
		m.status.SetConn(components.ConnOnline)
		return
	}
	m.status.SetConn(components.ConnOffline)
	if msg.err != nil {
		m.logger.Warn("realtime unavailable", zap.Error(msg.err))
	}
}

func (m *Model) handleConfigChanged(msg ConfigChangedMsg) tea.Cmd {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		return m.errorNotice("config reload failed: " + msg.Err.Error())
	}
	if msg.Config == nil {
		return nil
	}
	m.ui = msg.Config.UI

	width, height := m.theme.Width, m.theme.Height
	*m.theme = *styles.NewTheme(m.ui.Theme)
	m.theme.SetSize(width, height)
	m.markdown = components.NewMarkdown(m.theme.IsDark)

	// Force a re-render with the new settings.
	m.renderedWidth = -1
	m.handleResize(m.width, m.height)
	return m.notice("Settings reloaded")
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.showHelp {
		m.showHelp = false
		return nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Refresh):
		return m.reloadIdentity()
	case key.Matches(msg, m.keyMap.Focus) && m.focus != focusFilter:
		m.toggleFocus()
		return nil
	}

	switch m.focus {
	case focusFilter:
		return m.handleFilterKey(msg)
	case focusInput:
		return m.handleInputKey(msg)
	default:
		return m.handleSidebarKey(msg)
	}
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m.quit()
	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = true
	case key.Matches(msg, m.keyMap.Filter):
		m.focus = focusFilter
		return m.filter.Focus()
	case key.Matches(msg, m.keyMap.Back):
		if m.filter.Value() != "" {
			m.filter.Reset()
			m.state.Directory().SetFilter("")
		}
	case key.Matches(msg, m.keyMap.Up):
		m.list.MoveUp(1)
	case key.Matches(msg, m.keyMap.Down):
		m.list.MoveDown(1)
	case key.Matches(msg, m.keyMap.PageUp):
		m.list.MoveUp(m.list.PageSize())
	case key.Matches(msg, m.keyMap.PageDown):
		m.list.MoveDown(m.list.PageSize())
	case key.Matches(msg, m.keyMap.Home):
		m.list.Top()
	case key.Matches(msg, m.keyMap.End):
		m.list.Bottom()
	case key.Matches(msg, m.keyMap.Open):
		return m.openSelected()
	}
	return nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter.Reset()
		m.filter.Blur()
		m.state.Directory().SetFilter("")
		m.focus = focusSidebar
		return nil
	case tea.KeyEnter:
		m.filter.Blur()
		m.focus = focusSidebar
		return nil
	case tea.KeyUp:
		m.list.MoveUp(1)
		return nil
	case tea.KeyDown:
		m.list.MoveDown(1)
		return nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.state.Directory().SetFilter(m.filter.Value())
	m.list.Top()
	return cmd
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Back):
		m.input.Blur()
		m.focus = focusSidebar
		return nil
	case key.Matches(msg, m.keyMap.Send):
		return m.send()
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return nil
	case msg.Type == tea.KeyUp:
		m.viewport.LineUp(1)
		return nil
	case msg.Type == tea.KeyDown:
		m.viewport.LineDown(1)
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.state.Thread().SetDraft(m.input.Value())
	return cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput || m.state.Thread().State() == core.ThreadIdle {
		m.input.Blur()
		m.focus = focusSidebar
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

// openSelected opens the conversation under the cursor and returns the
// history load.
func (m *Model) openSelected() tea.Cmd {
	entry, ok := m.list.Selected()
	if !ok {
		return nil
	}
	cmd := m.loadHistory(entry.User)
	m.input.Reset()
	m.input.Focus()
	m.focus = focusInput
	return cmd
}

// send posts the draft. An empty draft is ignored silently, as is Enter
// while an earlier send is still outstanding.
func (m *Model) send() tea.Cmd {
	if m.sending {
		return nil
	}
	m.state.Thread().SetDraft(m.input.Value())
	receiverID, content, err := m.state.PrepareSend()
	switch {
	case errors.Is(err, core.ErrEmptyDraft):
		return nil
	case err != nil:
		return m.notice(err.Error())
	}
	return m.sendMessage(receiverID, content)
}

// =============================================================================
// LAYOUT
// =============================================================================

const (
	headerHeight = 1
	statusHeight = 1
	// inputHeight is the bordered single-line input box.
	inputHeight = 3
	// filterHeight is the filter line above the conversation list.
	filterHeight = 1
)

func (m *Model) handleResize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	sidebarW, threadW := m.paneWidths()
	bodyH := m.bodyHeight()

	// Sidebar border takes two cells each way.
	m.list.SetSize(maxInt(sidebarW-2, 8), maxInt(bodyH-2-filterHeight, 2))
	m.filter.Width = maxInt(sidebarW-6, 4)

	m.viewport.Width = maxInt(threadW, 1)
	m.viewport.Height = maxInt(bodyH-inputHeight, 1)
	m.welcome.SetSize(threadW, bodyH)

	// Input box: border and padding take four cells, the prompt two more.
	m.input.Width = maxInt(threadW-4-len(m.input.Prompt)-1, 10)
}

func (m *Model) bodyHeight() int {
	return maxInt(m.height-headerHeight-statusHeight, 3)
}

// paneWidths splits the width between sidebar and thread. Narrow terminals
// show one pane at a time; the other gets zero.
func (m *Model) paneWidths() (sidebar, thread int) {
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		if m.focus == focusInput {
			return 0, m.width
		}
		return m.width, 0
	}
	sidebar = m.ui.SidebarWidth
	if sidebar <= 0 {
		sidebar = config.Default().UI.SidebarWidth
	}
	if sidebar > m.width/2 {
		sidebar = m.width / 2
	}
	return sidebar, m.width - sidebar
}

// syncView copies the session state into the components after every
// Update.
func (m *Model) syncView() {
	dir := m.state.Directory()
	thread := m.state.Thread()

	m.list.SetEntries(dir.Entries())
	m.list.Focused = m.focus != focusInput
	m.list.Now = m.now()
	if thread.State() == core.ThreadIdle {
		m.list.SetActive("")
		m.header.SetPeer("")
	} else {
		m.list.SetActive(thread.Counterpart().ID)
		m.header.SetPeer(thread.Counterpart().DisplayName())
	}
	m.status.SetUnread(dir.UnreadTotal())
	m.welcome.SetContacts(len(dir.Users()))

	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		m.handleResize(m.width, m.height)
	}

	// Re-render on any change to the message list and follow the newest
	// message; a width change only re-wraps.
	revision := thread.Revision()
	if revision == m.renderedRevision && m.viewport.Width == m.renderedWidth {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	if revision != m.renderedRevision {
		m.viewport.GotoBottom()
	}
	m.renderedRevision = revision
	m.renderedWidth = m.viewport.Width
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
