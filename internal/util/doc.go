// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the client packages.
//
// Strings are measured in terminal columns with go-runewidth so that
// names and previews in the sidebar line up for wide characters.
// AtomicWriteFile is used for every file sarthi persists (config, token).
package util
