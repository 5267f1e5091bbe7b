// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a conversation transcript to a file.
//
// # Key Types
//
//   - Transcript: one conversation between the signed-in user and a counterpart
//   - Exporter: renders a Transcript in one format
//   - Options: output directory, metadata and timestamps
//
// # Supported Formats
//
//   - Markdown: human-readable, with a YAML front matter block
//   - JSON: machine-readable, messages as the server sent them
//   - HTML: a single self-contained page
//
// # Usage
//
//	t := export.Transcript{SelfID: id.UserID, SelfName: id.DisplayName(), Counterpart: user, Messages: msgs}
//	exp, err := export.ForFormat("markdown", opts)
//	path, err := export.ToFile(t, exp, opts)
package export
