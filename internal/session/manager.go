// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the signed-in identity and its bearer token.
package session

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager is the user context: who is signed in, with which token, and a
// generation counter that changes on every identity switch. Work started
// under one generation can check IsCurrent before applying its result.
type Manager struct {
	mu sync.RWMutex

	identity Identity
	token    string
	gen      uint64
	since    time.Time

	listeners []func(Identity)
}

// NewManager creates a signed-out manager.
func NewManager() *Manager {
	return &Manager{}
}

// =============================================================================
// IDENTITY
// =============================================================================

// Login resolves the identity from token and switches to it.
func (m *Manager) Login(token string) (Identity, error) {
	id, err := FromToken(token)
	if err != nil {
		return Identity{}, err
	}
	m.Switch(id, token)
	return id, nil
}

// Switch replaces the identity and token, bumps the generation and
// notifies listeners. Switching to the identity already held still counts
// as a switch.
func (m *Manager) Switch(id Identity, token string) uint64 {
	m.mu.Lock()
	m.identity = id
	m.token = strings.TrimSpace(token)
	m.gen++
	m.since = time.Now()
	gen := m.gen
	listeners := append([]func(Identity){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
	return gen
}

// Logout clears the identity.
func (m *Manager) Logout() {
	m.Switch(Identity{}, "")
}

// Current returns the identity and its generation.
func (m *Manager) Current() (Identity, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity, m.gen
}

// Identity returns the signed-in identity.
func (m *Manager) Identity() Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity
}

// Token returns the bearer token.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Generation returns the current generation.
func (m *Manager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

// IsCurrent reports whether gen is still the active generation.
func (m *Manager) IsCurrent(gen uint64) bool {
	return m.Generation() == gen
}

// Since returns when the current identity was set.
func (m *Manager) Since() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.since
}

// OnChange registers fn to run after every switch, outside the lock.
func (m *Manager) OnChange(fn func(Identity)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}
