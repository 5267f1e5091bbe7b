// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/realtime"
	"github.com/hrsarthi/sarthi-tui/internal/tasks"
)

// API is the subset of the REST client the chat needs.
type API interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	ListMessages(ctx context.Context, counterpartID string) ([]model.Message, error)
	SendMessage(ctx context.Context, receiverID, content string) (model.Message, error)
	MarkRead(ctx context.Context, messageID string) error
	MarkAllRead(ctx context.Context, counterpartID string) error
}

// Notifier is the subset of the real-time channel the chat subscribes to.
type Notifier interface {
	OnNewMessage(fn func(model.Message)) *realtime.Subscription
	OnMessageRead(fn func(messageID string)) *realtime.Subscription
}

// Event is a real-time notification forwarded to the owning loop.
type Event interface {
	isEvent()
}

// MessageArrived carries a new-message event.
type MessageArrived struct {
	Message model.Message
}

// MessageSeen carries a message-read event.
type MessageSeen struct {
	MessageID string
}

func (MessageArrived) isEvent() {}
func (MessageSeen) isEvent()    {}

// =============================================================================
// SERVICE
// =============================================================================

// Service performs the chat's I/O. It holds no view state; results are
// returned to the caller, which applies them to its Session on its own
// loop.
type Service struct {
	api     API
	runner  *tasks.Runner
	logger  *zap.Logger
	timeout time.Duration
}

// NewService wires the REST client and the background runner.
func NewService(api API, runner *tasks.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:     api,
		runner:  runner,
		logger:  logger.Named("chat"),
		timeout: 15 * time.Second,
	}
}

// WithTimeout bounds each foreground call.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// LoadDirectory fetches users and conversations in parallel and waits for
// both. A failure of one half is logged and reported in the result; it
// never cancels or hides the other half.
func (s *Service) LoadDirectory(ctx context.Context) DirectoryResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var res DirectoryResult
	// The group's functions never return an error, so one failure cannot
	// cancel the sibling: this is an all-settled join.
	var g errgroup.Group
	g.Go(func() error {
		res.Users, res.UsersErr = s.api.ListUsers(ctx)
		if res.UsersErr != nil {
			s.logger.Warn("load users failed", zap.Error(res.UsersErr))
		}
		return nil
	})
	g.Go(func() error {
		res.Conversations, res.ConversationsErr = s.api.ListConversations(ctx)
		if res.ConversationsErr != nil {
			s.logger.Warn("load conversations failed", zap.Error(res.ConversationsErr))
		}
		return nil
	})
	_ = g.Wait()
	return res
}

// LoadHistory fetches the thread with counterpartID.
func (s *Service) LoadHistory(ctx context.Context, counterpartID string) ([]model.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	msgs, err := s.api.ListMessages(ctx, counterpartID)
	if err != nil {
		s.logger.Warn("load history failed", zap.String("counterpart_id", counterpartID), zap.Error(err))
		return nil, err
	}
	return msgs, nil
}

// Send posts content to receiverID and returns the stored message. It
// does not retry.
func (s *Service) Send(ctx context.Context, receiverID, content string) (model.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	msg, err := s.api.SendMessage(ctx, receiverID, content)
	if err != nil {
		s.logger.Warn("send failed", zap.String("receiver_id", receiverID), zap.Error(err))
		return model.Message{}, fmt.Errorf("send message: %w", err)
	}
	return msg, nil
}

// MarkThreadRead marks everything from counterpartID as read in the
// background. Nothing is submitted when ids is empty.
func (s *Service) MarkThreadRead(counterpartID string, ids []string) *tasks.Task {
	if len(ids) == 0 || counterpartID == "" {
		return nil
	}
	return s.runner.Submit(fmt.Sprintf("mark %d read from %s", len(ids), counterpartID), func(ctx context.Context) error {
		return s.api.MarkAllRead(ctx, counterpartID)
	})
}

// MarkMessageRead marks one message as read in the background.
func (s *Service) MarkMessageRead(messageID string) *tasks.Task {
	if messageID == "" {
		return nil
	}
	return s.runner.Submit("mark read "+messageID, func(ctx context.Context) error {
		return s.api.MarkRead(ctx, messageID)
	})
}

// Bind subscribes to the chat events on n and forwards them to sink. The
// returned group releases exactly these registrations.
func (s *Service) Bind(n Notifier, sink func(Event)) *realtime.Group {
	g := &realtime.Group{}
	g.Add(
		n.OnNewMessage(func(m model.Message) {
			sink(MessageArrived{Message: m})
		}),
		n.OnMessageRead(func(id string) {
			sink(MessageSeen{MessageID: id})
		}),
	)
	return g
}
