// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid payload")

// =============================================================================
// USER
// =============================================================================

// User is a directory entry as returned by GET /users.
type User struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Active     bool   `json:"isActive"`
}

// userWire mirrors the server's user document, which may carry `_id`
// instead of `id` and `active` instead of `isActive`.
type userWire struct {
	ID         string `json:"id"`
	MongoID    string `json:"_id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
	IsActive   *bool  `json:"isActive"`
	Active     *bool  `json:"active"`
}

// UnmarshalJSON accepts both `id` and `_id` and splits a single `name`
// field when first/last names are absent.
func (u *User) UnmarshalJSON(data []byte) error {
	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*u = User{
		ID:         firstNonEmpty(w.ID, w.MongoID),
		FirstName:  w.FirstName,
		LastName:   w.LastName,
		Email:      w.Email,
		Role:       w.Role,
		Department: w.Department,
		Active:     true,
	}
	if u.FirstName == "" && u.LastName == "" && w.Name != "" {
		u.FirstName, u.LastName = splitName(w.Name)
	}
	switch {
	case w.IsActive != nil:
		u.Active = *w.IsActive
	case w.Active != nil:
		u.Active = *w.Active
	}
	return nil
}

// DisplayName returns "First Last", falling back to the email or id.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

// Initials returns up to two uppercase initials for avatar badges.
func (u User) Initials() string {
	var b strings.Builder
	for _, part := range []string{u.FirstName, u.LastName} {
		for _, r := range part {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
	}
	if b.Len() == 0 && u.ID != "" {
		return strings.ToUpper(string([]rune(u.ID)[0]))
	}
	return b.String()
}

// Ref returns the lightweight reference used inside messages.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

// Validate checks the fields the client depends on.
func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user without id", ErrInvalid)
	}
	return nil
}

// =============================================================================
// USER REFERENCE
// =============================================================================

// UserRef identifies the sender or receiver of a message. The server sends
// either a bare id string or a populated user object.
type UserRef struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// UnmarshalJSON decodes a bare id string or an object with `id`/`_id`.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = UserRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = UserRef{ID: id}
		return nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*r = u.Ref()
	return nil
}

// DisplayName returns the populated name or the bare id.
func (r UserRef) DisplayName() string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name != "" {
		return name
	}
	return r.ID
}

// =============================================================================
// HELPERS
// =============================================================================

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}
