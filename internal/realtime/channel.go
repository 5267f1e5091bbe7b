// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package realtime is the client side of the chat's push channel.
//
// A Channel holds at most one websocket session, scoped to one user id.
// Consumers register per-event handlers and get back a Subscription handle;
// handlers run on the channel's read goroutine in frame order. Delivery is
// best-effort notification: there is no reconnection policy, no replay and
// no acknowledgement. The REST API remains the source of truth.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hrsarthi/sarthi-tui/internal/model"
)

// Defaults for the websocket session.
const (
	DefaultPingInterval     = 25 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	writeWait               = 10 * time.Second
	maxFrameSize            = 512 * 1024
)

// Error variables for channel failures.
var (
	// ErrNotConnected is returned by Emit when no session is open.
	ErrNotConnected = errors.New("realtime channel not connected")

	// ErrNoUser is returned by Connect when the user id is empty.
	ErrNoUser = errors.New("realtime channel requires a user id")

	// ErrBadURL indicates the configured socket URL cannot be used.
	ErrBadURL = errors.New("invalid realtime url")
)

// StateFunc is notified when the connection opens or drops. err is non-nil
// when the session ended abnormally.
type StateFunc func(connected bool, userID string, err error)

// =============================================================================
// CHANNEL
// =============================================================================

// Channel is the real-time adapter. Construct one per application and
// inject it where events are needed; it is safe for concurrent use.
type Channel struct {
	url          string
	token        string
	dialer       *websocket.Dialer
	logger       *zap.Logger
	pingInterval time.Duration

	// connectMu serializes Connect and Disconnect so a dial in flight
	// cannot interleave with a teardown.
	connectMu sync.Mutex

	mu         sync.Mutex
	conn       *websocket.Conn
	userID     string
	gen        uint64
	done       chan struct{}
	subs       map[string][]subscription
	nextID     uint64
	onState    StateFunc
	cancelDial context.CancelFunc

	writeMu sync.Mutex
}

// NewChannel creates a disconnected channel for the socket at rawURL.
func NewChannel(rawURL, token string) *Channel {
	return &Channel{
		url:   rawURL,
		token: token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		logger:       zap.NewNop(),
		pingInterval: DefaultPingInterval,
		subs:         make(map[string][]subscription),
	}
}

// WithLogger attaches a logger.
func (c *Channel) WithLogger(logger *zap.Logger) *Channel {
	if logger != nil {
		c.logger = logger.Named("realtime")
	}
	return c
}

// WithPingInterval sets the keepalive interval. Zero disables pings.
func (c *Channel) WithPingInterval(d time.Duration) *Channel {
	c.pingInterval = d
	return c
}

// WithHandshakeTimeout sets the dial handshake timeout.
func (c *Channel) WithHandshakeTimeout(d time.Duration) *Channel {
	if d > 0 {
		c.dialer.HandshakeTimeout = d
	}
	return c
}

// WithToken replaces the bearer token used on the next Connect.
func (c *Channel) WithToken(token string) *Channel {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return c
}

// SetStateHandler installs the connection state callback. It runs on the
// goroutine that observed the change and must not block.
func (c *Channel) SetStateHandler(fn StateFunc) {
	c.mu.Lock()
	c.onState = fn
	c.mu.Unlock()
}

// Connected reports whether a session is open.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// UserID returns the user the open session is scoped to, or "".
func (c *Channel) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ""
	}
	return c.userID
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Connect opens a session scoped to userID and joins the user's room.
//
// Connecting while already connected as userID is a no-op. Connecting as a
// different user closes the old session first and drops every subscription
// bound to another user, so no handler keeps receiving events for a stale
// identity. Subscriptions registered while disconnected bind to userID.
func (c *Channel) Connect(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUser
	}

	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.conn != nil && c.userID == userID {
		c.mu.Unlock()
		return nil
	}
	c.teardownLocked()
	c.rescopeLocked(userID)
	token := c.token
	c.cancelDial = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancelDial = nil
		c.mu.Unlock()
	}()

	endpoint, err := endpointURL(c.url, userID)
	if err != nil {
		return err
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, err := c.dial(dialCtx, endpoint, header)
	if err != nil {
		c.logger.Warn("connect failed", zap.String("user_id", userID), zap.Error(err))
		c.notify(false, userID, err)
		return fmt.Errorf("realtime connect: %w", err)
	}
	conn.SetReadLimit(maxFrameSize)

	c.mu.Lock()
	if err := dialCtx.Err(); err != nil {
		c.mu.Unlock()
		_ = conn.Close()
		c.notify(false, userID, err)
		return fmt.Errorf("realtime connect: %w", err)
	}
	// Subscriptions added while the dial was in flight are still unscoped.
	c.rescopeLocked(userID)
	c.gen++
	gen := c.gen
	c.conn = conn
	c.userID = userID
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	if c.pingInterval > 0 {
		pongWait := 2 * c.pingInterval
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go c.pingLoop(conn, done)
	}
	go c.readLoop(conn, gen)

	if err := c.write(conn, model.EventJoin, model.JoinRequest{UserID: userID}); err != nil {
		c.logger.Warn("join failed", zap.String("user_id", userID), zap.Error(err))
	}
	c.logger.Info("connected", zap.String("user_id", userID))
	c.notify(true, userID, nil)
	return nil
}

// Disconnect closes the session. It is a no-op when not connected.
// A dial in flight is aborted rather than waited for.
// Subscriptions stay registered; they are dropped on the next Connect for
// a different user.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.cancelDial != nil {
		c.cancelDial()
	}
	c.mu.Unlock()

	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return
	}
	userID := c.userID
	c.teardownLocked()
	c.mu.Unlock()

	c.logger.Info("disconnected", zap.String("user_id", userID))
	c.notify(false, userID, nil)
}

// dial performs the websocket handshake. Cancelling ctx aborts it at any
// stage, including while the upgrade response is still outstanding.
func (c *Channel) dial(ctx context.Context, endpoint string, header http.Header) (*websocket.Conn, error) {
	var stop func() bool
	d := *c.dialer
	d.NetDialContext = func(dctx context.Context, network, addr string) (net.Conn, error) {
		nc, err := (&net.Dialer{}).DialContext(dctx, network, addr)
		if err != nil {
			return nil, err
		}
		stop = context.AfterFunc(ctx, func() { _ = nc.Close() })
		return nc, nil
	}

	conn, resp, err := d.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if stop != nil && !stop() {
		_ = conn.Close()
		return nil, ctx.Err()
	}
	return conn, nil
}

// teardownLocked closes the open connection, if any. Must hold mu.
func (c *Channel) teardownLocked() {
	if c.conn == nil {
		return
	}
	conn := c.conn
	c.conn = nil
	c.gen++
	close(c.done)
	c.done = nil

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	_ = conn.Close()
}

// rescopeLocked binds unscoped subscriptions to userID and drops those
// bound to anyone else. Must hold mu.
func (c *Channel) rescopeLocked(userID string) {
	for event, list := range c.subs {
		kept := list[:0]
		for _, s := range list {
			switch s.scope {
			case "":
				s.scope = userID
				kept = append(kept, s)
			case userID:
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(c.subs, event)
			continue
		}
		c.subs[event] = kept
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers handler for event and returns its handle. Several
// handlers may be registered for the same event.
func (c *Channel) Subscribe(event string, handler Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	scope := ""
	if c.conn != nil {
		scope = c.userID
	}
	c.subs[event] = append(c.subs[event], subscription{
		id:      c.nextID,
		scope:   scope,
		handler: handler,
	})
	return &Subscription{ch: c, event: event, id: c.nextID}
}

// Off removes every handler registered for event, including ones owned
// by other views. Prefer Subscription.Unsubscribe; Off is for full
// teardown of an event name.
func (c *Channel) Off(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, event)
}

// HandlerCount returns the number of live registrations for event.
func (c *Channel) HandlerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[event])
}

func (c *Channel) remove(event string, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.subs[event]
	for i, s := range list {
		if s.id == id {
			c.subs[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(c.subs[event]) == 0 {
		delete(c.subs, event)
	}
}

// OnNewMessage registers a typed handler for new-message events. Frames
// that fail to decode or validate are logged and skipped.
func (c *Channel) OnNewMessage(fn func(model.Message)) *Subscription {
	return c.Subscribe(model.EventNewMessage, func(data []byte) {
		var ev model.NewMessageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("malformed new-message", zap.Error(err))
			return
		}
		if err := ev.Validate(); err != nil {
			c.logger.Warn("invalid new-message", zap.Error(err))
			return
		}
		fn(ev.Message)
	})
}

// OnMessageRead registers a typed handler for message-read events.
func (c *Channel) OnMessageRead(fn func(messageID string)) *Subscription {
	return c.Subscribe(model.EventMessageRead, func(data []byte) {
		var ev model.MessageReadEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("malformed message-read", zap.Error(err))
			return
		}
		if err := ev.Validate(); err != nil {
			c.logger.Warn("invalid message-read", zap.Error(err))
			return
		}
		fn(ev.MessageID)
	})
}

// =============================================================================
// IO
// =============================================================================

// Emit publishes an event on the open session.
func (c *Channel) Emit(event string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return c.write(conn, event, payload)
}

func (c *Channel) write(conn *websocket.Conn, event string, payload any) error {
	env, err := newEnvelope(event, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}

// readLoop decodes frames and dispatches them until the connection ends.
func (c *Channel) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(gen, err)
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("malformed frame", zap.Error(err))
			continue
		}
		if env.Event == "" {
			continue
		}
		c.dispatch(gen, env)
	}
}

// dispatch runs the handlers registered for env.Event in the current scope.
func (c *Channel) dispatch(gen uint64, env Envelope) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	scope := c.userID
	var handlers []Handler
	for _, s := range c.subs[env.Event] {
		if s.scope == scope {
			handlers = append(handlers, s.handler)
		}
	}
	c.mu.Unlock()

	for _, h := range handlers {
		c.safeCall(env.Event, h, env.Data)
	}
}

func (c *Channel) safeCall(event string, h Handler, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic", zap.String("event", event), zap.Any("panic", r))
		}
	}()
	h(data)
}

// connectionLost clears the session if gen is still current.
func (c *Channel) connectionLost(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || c.conn == nil {
		c.mu.Unlock()
		return
	}
	userID := c.userID
	conn := c.conn
	c.conn = nil
	c.gen++
	close(c.done)
	c.done = nil
	c.mu.Unlock()
	_ = conn.Close()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		err = nil
	}
	c.logger.Warn("connection lost", zap.String("user_id", userID), zap.Error(err))
	c.notify(false, userID, err)
}

func (c *Channel) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *Channel) notify(connected bool, userID string, err error) {
	c.mu.Lock()
	fn := c.onState
	c.mu.Unlock()
	if fn != nil {
		fn(connected, userID, err)
	}
}
