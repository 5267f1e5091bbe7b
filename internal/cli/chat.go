// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode conversation with one user.
//
// Command: chat <user>
// Aliases: c
//
// The history is printed, unread messages are marked read in the
// background, and then every line typed is sent. Messages pushed over the
// real-time channel are printed as they arrive, with "seen" notices for
// messages the other side has read.
//
// Flags:
//   --limit N           Show only the last N messages of the history

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/config"
	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/realtime"
	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// chatEventBuffer is how many real-time events may queue while a send is
// in flight.
const chatEventBuffer = 64

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the chat prompt.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI whose history lives in the sarthi directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line. Non-empty lines are added to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history owner-only.
func (c *ChatCLI) SaveHistory() {
	var buf bytes.Buffer
	if _, err := c.line.WriteHistory(&buf); err != nil {
		return
	}
	_ = util.AtomicWriteFile(c.historyFile, buf.Bytes(), 0600)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

type inputLine struct {
	text string
	err  error
}

type connChange struct {
	connected bool
	err       error
}

// HandleChat runs the line-mode conversation with args.User.
func HandleChat(app *App, args Args) error {
	if args.JSON {
		return NewValidationError("flag", "--json", "chat is interactive; use send or conversations for scripted output")
	}
	if strings.TrimSpace(args.User) == "" {
		return ErrMissingArgument("user", `sarthi chat "alice smith"`)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	self, svc, err := app.online()
	if err != nil {
		return err
	}
	user, _, err := resolveCounterpart(ctx, svc, self, args.User)
	if err != nil {
		return err
	}

	r := newChatRepl(svc, chat.NewSession(self), os.Stdout, app.Logger)
	r.limit = args.Limit
	r.printHeader(user)
	if err := r.open(ctx, user); err != nil {
		return err
	}

	events := make(chan chat.Event, chatEventBuffer)
	conns := make(chan connChange, 4)
	if ch := app.NewChannel(app.Sessions.Token()); ch != nil {
		teardown := bindRealtime(ctx, app, svc, ch, self.UserID, events, conns)
		defer teardown()
	} else {
		fmt.Fprintln(r.out, DimStyle.Render("Live updates are off; use /refresh to check for new messages."))
	}

	input := NewChatCLI()
	defer input.Close()

	lines := make(chan inputLine)
	next := make(chan struct{})
	prompt := "> "
	go func() {
		for {
			text, err := input.ReadInput(prompt)
			lines <- inputLine{text: text, err: err}
			if err != nil {
				return
			}
			if _, ok := <-next; !ok {
				return
			}
		}
	}()

	for {
		select {
		case in := <-lines:
			if in.err != nil {
				fmt.Fprintln(r.out)
				if !errors.Is(in.err, liner.ErrPromptAborted) && !errors.Is(in.err, io.EOF) {
					return fmt.Errorf("read input: %w", in.err)
				}
				return nil
			}
			if quit := r.handleLine(ctx, in.text); quit {
				close(next)
				return nil
			}
			next <- struct{}{}

		case e := <-events:
			r.handleEvent(e)

		case c := <-conns:
			r.handleConn(c)

		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		}
	}
}

// bindRealtime subscribes the REPL to ch and connects in the background.
// The returned func releases exactly what was set up here.
func bindRealtime(ctx context.Context, app *App, svc *chat.Service, ch *realtime.Channel, userID string,
	events chan<- chat.Event, conns chan<- connChange) func() {
	ch.SetStateHandler(func(connected bool, _ string, err error) {
		select {
		case conns <- connChange{connected: connected, err: err}:
		default:
		}
	})
	group := svc.Bind(ch, func(e chat.Event) {
		select {
		case events <- e:
		default:
			app.Logger.Warn("chat event dropped: buffer full")
		}
	})

	timeout := app.Config.Realtime.HandshakeTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	go func() {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_ = ch.Connect(cctx, userID)
	}()

	return func() {
		group.UnsubscribeAll()
		ch.SetStateHandler(nil)
		ch.Disconnect()
	}
}

// =============================================================================
// REPL STATE
// =============================================================================

// chatRepl owns the chat Session for one conversation. Every method runs
// on the HandleChat loop.
type chatRepl struct {
	svc    *chat.Service
	state  *chat.Session
	out    io.Writer
	logger *zap.Logger
	now    func() time.Time
	limit  int
	// wasConnected suppresses the "reconnected" notice on first connect.
	wasConnected bool
	// clearLine erases the prompt before asynchronous output.
	clearLine bool
}

func newChatRepl(svc *chat.Service, state *chat.Session, out io.Writer, logger *zap.Logger) *chatRepl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &chatRepl{
		svc:       svc,
		state:     state,
		out:       out,
		logger:    logger.Named("cli"),
		now:       time.Now,
		clearLine: out == os.Stdout && IsStdoutTTY(),
	}
}

func (r *chatRepl) printHeader(user model.User) {
	title := "Chat with " + user.DisplayName()
	if user.Department != "" {
		title += " (" + user.Department + ")"
	}
	fmt.Fprintln(r.out, TitleStyle.Render(title))
	fmt.Fprintln(r.out, DimStyle.Render("Type a message and press Enter. /help for commands, /quit to leave."))
}

// open loads the thread with user, prints it and marks it read.
func (r *chatRepl) open(ctx context.Context, user model.User) error {
	token := r.state.OpenThread(user)
	msgs, err := r.svc.LoadHistory(ctx, user.ID)
	if err != nil {
		r.state.ApplyHistoryError(token)
		return err
	}
	unread, ok := r.state.ApplyHistory(token, msgs)
	if !ok {
		return nil
	}
	r.printHistory(r.limit)
	if len(unread) > 0 {
		r.svc.MarkThreadRead(user.ID, unread)
	}
	return nil
}

// printHistory prints the last limit messages, or all for limit <= 0.
func (r *chatRepl) printHistory(limit int) {
	thread := r.state.Thread()
	msgs := thread.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No messages yet. Say hello!"))
		return
	}
	if limit > 0 && len(msgs) > limit {
		fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("... %d earlier", len(msgs)-limit)))
		msgs = msgs[len(msgs)-limit:]
	}
	for _, m := range msgs {
		fmt.Fprintln(r.out, r.formatMessage(m))
	}
}

func (r *chatRepl) formatMessage(m model.Message) string {
	stamp := DimStyle.Render("[" + util.FormatStamp(m.Timestamp, r.now()) + "]")
	if m.IsFrom(r.state.SelfID()) {
		status := r.state.StatusOf(m).String()
		return fmt.Sprintf("%s %s %s %s", stamp, SelfStyle.Render("You:"), m.Content, DimStyle.Render("("+status+")"))
	}
	name := r.state.Thread().Counterpart().DisplayName()
	return fmt.Sprintf("%s %s %s", stamp, PeerStyle.Render(name+":"), m.Content)
}

// async prints a line that did not come from the user's own input.
func (r *chatRepl) async(line string) {
	if r.clearLine {
		fmt.Fprint(r.out, "\r\033[K")
	}
	fmt.Fprintln(r.out, line)
}

// =============================================================================
// INPUT
// =============================================================================

// handleLine sends text or runs a slash command. It returns true to quit.
func (r *chatRepl) handleLine(ctx context.Context, text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "/") {
		return r.handleCommand(ctx, trimmed)
	}
	r.send(ctx, text)
	return false
}

func (r *chatRepl) handleCommand(ctx context.Context, cmd string) bool {
	fields := strings.Fields(cmd)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		return true
	case "/refresh", "/r":
		if err := r.open(ctx, r.state.Thread().Counterpart()); err != nil {
			fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
	case "/history":
		r.printHistory(0)
	case "/help", "/?":
		fmt.Fprintln(r.out, "  /refresh   reload the conversation")
		fmt.Fprintln(r.out, "  /history   print the whole conversation")
		fmt.Fprintln(r.out, "  /quit      leave")
	default:
		fmt.Fprintf(r.out, "%s unknown command %s (try /help)\n", WarningStyle.Render("[?]"), fields[0])
	}
	return false
}

// send posts the draft. A failure keeps the draft and is printed; it is
// not retried.
func (r *chatRepl) send(ctx context.Context, text string) {
	r.state.Thread().SetDraft(text)
	receiverID, content, err := r.state.PrepareSend()
	if err != nil {
		if !errors.Is(err, chat.ErrEmptyDraft) {
			fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		return
	}
	msg, err := r.svc.Send(ctx, receiverID, content)
	if err != nil {
		fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Not sent]"), err)
		return
	}
	r.state.ApplySent(msg)
	fmt.Fprintln(r.out, r.formatMessage(msg))
}

// =============================================================================
// REAL-TIME EVENTS
// =============================================================================

func (r *chatRepl) handleEvent(e chat.Event) {
	switch ev := e.(type) {
	case chat.MessageArrived:
		res := r.state.ApplyIncoming(ev.Message)
		switch {
		case res.Appended:
			r.async(r.formatMessage(ev.Message))
			if res.MarkRead {
				r.svc.MarkMessageRead(ev.Message.ID)
			}
		case res.RefreshList && ev.Message.IsIncoming(r.state.SelfID()):
			r.async(DimStyle.Render("New message from " + ev.Message.Sender.DisplayName()))
		}

	case chat.MessageSeen:
		if !r.state.ApplyRead(ev.MessageID) {
			return
		}
		if m, ok := r.state.Thread().Message(ev.MessageID); ok && m.IsFrom(r.state.SelfID()) {
			r.async(DimStyle.Render("seen: " + util.TruncateRunes(util.SingleLine(m.Content), 40)))
		}
	}
}

func (r *chatRepl) handleConn(c connChange) {
	switch {
	case c.connected && r.wasConnected:
		r.async(DimStyle.Render("Live updates reconnected."))
	case c.connected:
		r.logger.Debug("live updates connected")
	case c.err != nil:
		r.async(WarningStyle.Render("Live updates unavailable: ") + c.err.Error())
	}
	r.wasConnected = r.wasConnected || c.connected
}
