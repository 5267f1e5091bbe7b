// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the signed-in identity and its bearer token.
//
// The identity is read from the token's claims (see FromToken). Manager
// tracks the current identity and a generation number; every Switch bumps
// the generation so asynchronous results fetched for a previous user can be
// recognized and dropped.
//
// # Usage
//
//	mgr := session.NewManager()
//	id, err := mgr.Login(token)
//	if err != nil {
//	    return err
//	}
//	gen := mgr.Generation()
//	// ... later, after an async fetch:
//	if !mgr.IsCurrent(gen) {
//	    return // identity changed meanwhile
//	}
package session
