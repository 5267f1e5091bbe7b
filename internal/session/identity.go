// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Error variables for identity resolution.
var (
	// ErrNoToken indicates no bearer token is available.
	ErrNoToken = errors.New("no auth token")

	// ErrNoUserClaim indicates the token carries no recognizable user id.
	ErrNoUserClaim = errors.New("token has no user id claim")
)

// userIDClaims are tried in order when reading the user id from a token.
var userIDClaims = []string{"id", "_id", "userId", "user_id", "user_uuid", "sub"}

// Identity is the signed-in user as the client knows it.
type Identity struct {
	UserID    string
	Name      string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// IsZero reports whether no user is signed in.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// Expired reports whether the token's exp claim is in the past.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// DisplayName returns the name, falling back to email or id.
func (i Identity) DisplayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.Email != "":
		return i.Email
	default:
		return i.UserID
	}
}

// NormalizeToken strips surrounding space and a "Bearer " prefix.
func NormalizeToken(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
}

// FromToken reads the identity claims of a bearer token. The signature is
// not verified here; the server checks it on every request.
func FromToken(token string) (Identity, error) {
	token = NormalizeToken(token)
	if token == "" {
		return Identity{}, ErrNoToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	id := Identity{
		UserID: claimString(claims, userIDClaims...),
		Email:  claimString(claims, "email"),
		Role:   claimString(claims, "role"),
		Name:   claimString(claims, "name"),
	}
	if id.Name == "" {
		id.Name = strings.TrimSpace(claimString(claims, "firstName") + " " + claimString(claims, "lastName"))
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	if id.UserID == "" {
		return id, ErrNoUserClaim
	}
	return id, nil
}

// claimString returns the first non-empty string claim among keys.
func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
