// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/hrsarthi/sarthi-tui/internal/model"
)

// fold applies Unicode case folding. A Caser is stateful, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// DirectoryResult is the outcome of the parallel users/conversations fetch.
// Each half fails independently.
type DirectoryResult struct {
	Users            []model.User
	UsersErr         error
	Conversations    []model.Conversation
	ConversationsErr error
}

// Entry is one row of the conversation list.
type Entry struct {
	User          model.User
	LastMessage   string
	LastMessageAt time.Time
	UnreadCount   int
	// HasConversation is true when the server returned a summary for this
	// user; false for directory-only contacts.
	HasConversation bool
}

// =============================================================================
// DIRECTORY
// =============================================================================

// Directory is the conversation list view state.
type Directory struct {
	selfID        string
	users         []model.User
	conversations []model.Conversation
	loading       bool
	loaded        bool
	usersErr      error
	convErr       error
	query         string
	loadSeq       uint64
}

// NewDirectory creates an empty directory for selfID.
func NewDirectory(selfID string) *Directory {
	return &Directory{selfID: selfID}
}

// BeginLoad marks a fetch in flight and returns its token.
func (d *Directory) BeginLoad() uint64 {
	d.loadSeq++
	d.loading = true
	return d.loadSeq
}

// ApplyLoad installs a fetch result. A failed half becomes an empty list;
// the view always leaves the loading state. Stale tokens are ignored.
func (d *Directory) ApplyLoad(token uint64, res DirectoryResult) bool {
	if token != d.loadSeq {
		return false
	}
	d.loading = false
	d.loaded = true
	d.usersErr = res.UsersErr
	d.convErr = res.ConversationsErr

	d.users = nil
	if res.UsersErr == nil {
		d.users = append([]model.User(nil), res.Users...)
	}
	d.conversations = nil
	if res.ConversationsErr == nil {
		d.conversations = append([]model.Conversation(nil), res.Conversations...)
	}
	return true
}

// Loading reports whether a fetch is in flight.
func (d *Directory) Loading() bool {
	return d.loading
}

// Loaded reports whether at least one fetch has completed.
func (d *Directory) Loaded() bool {
	return d.loaded
}

// Errors returns the per-half failures of the last fetch.
func (d *Directory) Errors() (usersErr, conversationsErr error) {
	return d.usersErr, d.convErr
}

// Users returns the directory users, excluding the current user.
func (d *Directory) Users() []model.User {
	out := make([]model.User, 0, len(d.users))
	for _, u := range d.users {
		if u.ID != d.selfID {
			out = append(out, u)
		}
	}
	return out
}

// Conversations returns the conversation summaries as fetched.
func (d *Directory) Conversations() []model.Conversation {
	return append([]model.Conversation(nil), d.conversations...)
}

// User looks a user up by id across both halves.
func (d *Directory) User(id string) (model.User, bool) {
	for _, c := range d.conversations {
		if c.User.ID == id {
			return c.User, true
		}
	}
	for _, u := range d.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// SetFilter sets the filter query.
func (d *Directory) SetFilter(query string) {
	d.query = query
}

// Filter returns the filter query.
func (d *Directory) Filter() string {
	return d.query
}

// Entries merges conversations and users into list rows. Users with a
// conversation come first, newest activity first; the rest follow by name.
// The filter applies to both.
func (d *Directory) Entries() []Entry {
	seen := make(map[string]bool)
	var withConv, contacts []Entry

	for _, c := range d.conversations {
		if c.User.ID == d.selfID || seen[c.User.ID] {
			continue
		}
		seen[c.User.ID] = true
		user := c.User
		if full, ok := d.directoryUser(user.ID); ok {
			user = mergeUser(user, full)
		}
		withConv = append(withConv, Entry{
			User:            user,
			LastMessage:     c.LastMessage,
			LastMessageAt:   c.LastMessageAt,
			UnreadCount:     c.UnreadCount,
			HasConversation: true,
		})
	}
	for _, u := range d.users {
		if u.ID == d.selfID || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		contacts = append(contacts, Entry{User: u})
	}

	sort.SliceStable(withConv, func(i, j int) bool {
		return withConv[i].LastMessageAt.After(withConv[j].LastMessageAt)
	})
	sort.SliceStable(contacts, func(i, j int) bool {
		return fold(contacts[i].User.DisplayName()) < fold(contacts[j].User.DisplayName())
	})

	all := append(withConv, contacts...)
	if strings.TrimSpace(d.query) == "" {
		return all
	}
	out := all[:0]
	for _, e := range all {
		if Matches(e.User, d.query) {
			out = append(out, e)
		}
	}
	return out
}

// UnreadTotal sums unread counts over all conversations.
func (d *Directory) UnreadTotal() int {
	total := 0
	for _, c := range d.conversations {
		total += c.UnreadCount
	}
	return total
}

func (d *Directory) directoryUser(id string) (model.User, bool) {
	for _, u := range d.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// mergeUser fills fields the conversation summary left empty.
func mergeUser(partial, full model.User) model.User {
	if partial.FirstName == "" && partial.LastName == "" {
		partial.FirstName, partial.LastName = full.FirstName, full.LastName
	}
	if partial.Department == "" {
		partial.Department = full.Department
	}
	if partial.Role == "" {
		partial.Role = full.Role
	}
	if partial.Email == "" {
		partial.Email = full.Email
	}
	return partial
}

// Matches reports whether query is a case-insensitive substring of the
// user's display name or department.
func Matches(u model.User, query string) bool {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(fold(u.DisplayName()), q) ||
		strings.Contains(fold(u.Department), q)
}

// FilterUsers returns the users matching query, in input order.
func FilterUsers(users []model.User, query string) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if Matches(u, query) {
			out = append(out, u)
		}
	}
	return out
}
