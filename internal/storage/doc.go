// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the session token between runs.
//
// The token is sealed with XChaCha20-Poly1305 under a random key kept in a
// separate owner-only file next to it. Anyone who can read both files can
// recover the token.
//
// # Files
//
//	~/.sarthi/token      magic | nonce | ciphertext
//	~/.sarthi/token.key  32 random bytes
//
// # Usage
//
//	store := storage.NewTokenStore(path)
//	if err := store.Save(token); err != nil { ... }
//	token, err := store.Load()
//	if errors.Is(err, storage.ErrNoToken) { ... }
package storage
