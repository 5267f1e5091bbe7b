// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// fileMagic prefixes sealed token files and is bound as associated data.
var fileMagic = []byte("SRT1")

// =============================================================================
// ERRORS
// =============================================================================

// StorageError is a token storage failure. Use errors.Is with the sentinel
// values below.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is matches on message so wrapped copies compare equal.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrNoToken is returned when nothing has been stored.
	ErrNoToken = &StorageError{Message: "no stored token"}

	// ErrCorrupt is returned when the file cannot be opened with the key.
	ErrCorrupt = &StorageError{Message: "stored token is corrupt"}
)

// =============================================================================
// TOKEN STORE
// =============================================================================

// TokenStore keeps one sealed token on disk.
type TokenStore struct {
	path    string
	keyPath string
}

// NewTokenStore stores the token at path and its key at path + ".key".
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path, keyPath: path + ".key"}
}

// Path returns the token file path.
func (s *TokenStore) Path() string {
	return s.path
}

// Exists reports whether a token file is present.
func (s *TokenStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save seals token and writes it atomically with owner-only permissions.
func (s *TokenStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("refusing to store an empty token")
	}
	key, err := s.key(true)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(fileMagic)+len(nonce)+len(token)+aead.Overhead())
	out = append(out, fileMagic...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(token), fileMagic)

	if err := util.AtomicWriteFile(s.path, out, 0600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Load opens the stored token. It returns ErrNoToken when either file is
// missing and ErrCorrupt when the contents do not authenticate.
func (s *TokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	key, err := s.key(false)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	header := len(fileMagic) + aead.NonceSize()
	if len(data) < header+aead.Overhead() || !bytes.Equal(data[:len(fileMagic)], fileMagic) {
		return "", ErrCorrupt
	}
	nonce := data[len(fileMagic):header]
	plain, err := aead.Open(nil, nonce, data[header:], fileMagic)
	if err != nil {
		return "", ErrCorrupt
	}
	return string(plain), nil
}

// Clear removes the token and its key. Clearing an empty store is not an
// error.
func (s *TokenStore) Clear() error {
	for _, p := range []string{s.path, s.keyPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// key reads the key file, creating it when create is set.
func (s *TokenStore) key(create bool) ([]byte, error) {
	key, err := os.ReadFile(s.keyPath)
	switch {
	case err == nil:
		if len(key) != chacha20poly1305.KeySize {
			return nil, ErrCorrupt
		}
		return key, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read key: %w", err)
	case !create:
		return nil, ErrNoToken
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := util.AtomicWriteFile(s.keyPath, key, 0600); err != nil {
		return nil, fmt.Errorf("write key: %w", err)
	}
	return key, nil
}
