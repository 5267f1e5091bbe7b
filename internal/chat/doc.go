// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the messaging model behind the chat screens.
//
// State and I/O are split. Session holds all view state for one identity
// (Directory, Thread, ReceiptSet) and is mutated only by the loop that owns
// it. Service performs REST calls and background mark-read tasks and
// returns results; the loop applies them with the Session's Apply methods.
// Real-time events reach the loop through Service.Bind.
//
// # Thread lifecycle
//
//	idle --Open--> loading --ApplyHistory--> loaded
//	loaded --Append/ApplySent/MarkRead--> loaded
//	any --Open(other)--> loading (messages discarded)
//
// History results carry the token returned by Open; a result for a
// superseded selection is dropped. Appends are idempotent by message id
// and never reorder existing messages.
//
// # Read receipts
//
// ReceiptSet only grows. It is seeded from the server read flag when
// history loads and extended by message-read events, which also flip the
// in-memory message. Session.Reset starts a fresh set.
package chat
