// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// directory.go - users, conversations and send.

package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/session"
	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// online signs in and builds the chat service for the current token.
func (a *App) online() (session.Identity, *chat.Service, error) {
	id, err := a.SignIn()
	if err != nil {
		return session.Identity{}, nil, err
	}
	return id, a.NewService(a.Sessions.Token()), nil
}

// loadDirectory fetches both halves of the directory. It fails only when
// both halves fail; a single failure is logged and noted on stderr.
func loadDirectory(ctx context.Context, svc *chat.Service, selfID string) (*chat.Directory, error) {
	dir := chat.NewDirectory(selfID)
	res := svc.LoadDirectory(ctx)
	dir.ApplyLoad(dir.BeginLoad(), res)

	switch {
	case res.UsersErr != nil && res.ConversationsErr != nil:
		return nil, res.UsersErr
	case res.UsersErr != nil:
		StderrPrintln(WarningStyle.Render("Warning:") + " could not load contacts: " + res.UsersErr.Error())
	case res.ConversationsErr != nil:
		StderrPrintln(WarningStyle.Render("Warning:") + " could not load conversations: " + res.ConversationsErr.Error())
	}
	return dir, nil
}

// resolveCounterpart loads the directory and resolves query against every
// user it knows, including users only seen in a conversation.
func resolveCounterpart(ctx context.Context, svc *chat.Service, self session.Identity, query string) (model.User, *chat.Directory, error) {
	dir, err := loadDirectory(ctx, svc, self.UserID)
	if err != nil {
		return model.User{}, nil, err
	}
	entries := dir.Entries()
	users := make([]model.User, len(entries))
	for i, e := range entries {
		users[i] = e.User
	}
	user, err := ResolveUser(users, query, self.UserID)
	if err != nil {
		return model.User{}, nil, err
	}
	return user, dir, nil
}

// =============================================================================
// USERS
// =============================================================================

// HandleUsers lists the directory, filtered by name or department.
func HandleUsers(app *App, args Args) error {
	return OutputJSON(args.JSON, "users", func() (interface{}, error) {
		self, svc, err := app.online()
		if err != nil {
			return nil, err
		}
		dir, err := loadDirectory(context.Background(), svc, self.UserID)
		if err != nil {
			return nil, err
		}
		users := chat.FilterUsers(dir.Users(), args.Filter)

		if args.JSON {
			data := make([]UserData, len(users))
			for i, u := range users {
				data[i] = newUserData(u)
			}
			return data, nil
		}

		if len(users) == 0 {
			if args.Filter != "" {
				fmt.Printf("No users match %q.\n", args.Filter)
			} else {
				fmt.Println("The directory is empty.")
			}
			return nil, nil
		}

		t := &table{
			headers: []string{"NAME", "ROLE", "DEPARTMENT", "ID"},
			max:     []int{28, 14, 22, 0},
		}
		for _, u := range users {
			t.add(u.DisplayName(), orDash(titleCase(u.Role)), orDash(u.Department), u.ID)
		}
		t.render(os.Stdout)
		fmt.Println(DimStyle.Render(util.Plural(len(users), "user")))
		return nil, nil
	})
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// HandleConversations lists conversations, newest first.
func HandleConversations(app *App, args Args) error {
	return OutputJSON(args.JSON, "conversations", func() (interface{}, error) {
		self, svc, err := app.online()
		if err != nil {
			return nil, err
		}
		dir, err := loadDirectory(context.Background(), svc, self.UserID)
		if err != nil {
			return nil, err
		}
		if _, convErr := dir.Errors(); convErr != nil {
			return nil, convErr
		}

		var convs []chat.Entry
		for _, e := range dir.Entries() {
			if e.HasConversation {
				convs = append(convs, e)
			}
		}

		if args.JSON {
			data := make([]ConversationData, len(convs))
			for i, e := range convs {
				data[i] = ConversationData{
					User:          newUserData(e.User),
					LastMessage:   e.LastMessage,
					LastMessageAt: e.LastMessageAt,
					UnreadCount:   e.UnreadCount,
				}
			}
			return data, nil
		}

		if len(convs) == 0 {
			fmt.Println("No conversations yet. Start one with: sarthi chat <user>")
			return nil, nil
		}

		now := time.Now()
		width := GetTerminalWidth()
		t := &table{
			headers: []string{"NAME", "UNREAD", "WHEN", "LAST MESSAGE"},
			max:     []int{24, 6, 8, maxInt(width-46, 10)},
		}
		for _, e := range convs {
			unread := ""
			if e.UnreadCount > 0 {
				unread = strconv.Itoa(e.UnreadCount)
			}
			when := ""
			if !e.LastMessageAt.IsZero() {
				when = util.FormatStamp(e.LastMessageAt, now)
			}
			t.add(e.User.DisplayName(), unread, when, util.SingleLine(e.LastMessage))
		}
		t.render(os.Stdout)
		if total := dir.UnreadTotal(); total > 0 {
			fmt.Println(DimStyle.Render(fmt.Sprintf("%d unread", total)))
		}
		return nil, nil
	})
}

// =============================================================================
// SEND
// =============================================================================

// HandleSend sends one message. The text is trimmed and must not be empty.
func HandleSend(app *App, args Args) error {
	if strings.TrimSpace(args.User) == "" {
		return ErrMissingArgument("user", `sarthi send <user> "message"`)
	}
	content := strings.TrimSpace(args.Text)
	if content == "" {
		return NewValidationErrorWithExample("message", "", "message text is empty", `sarthi send <user> "message"`)
	}

	return OutputJSON(args.JSON, "send", func() (interface{}, error) {
		self, svc, err := app.online()
		if err != nil {
			return nil, err
		}
		ctx := context.Background()
		user, _, err := resolveCounterpart(ctx, svc, self, args.User)
		if err != nil {
			return nil, err
		}

		msg, err := svc.Send(ctx, user.ID, content)
		if err != nil {
			return nil, err
		}
		app.Logger.Info("sent", zap.String("message_id", msg.ID), zap.String("receiver_id", user.ID))

		if args.JSON {
			return newMessageData(msg), nil
		}
		fmt.Printf("%s Sent to %s\n", SuccessStyle.Render("[OK]"), PeerStyle.Render(user.DisplayName()))
		return nil, nil
	})
}
