// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode commands of
// sarthi.
//
// The full-screen chat is started by main; everything else lives here and
// shares one bootstrap (App) that loads configuration, opens the log file
// and resolves the stored login.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global flags
//   - App: Configuration, logger, token store and session manager for a run
//   - JSONResponse: Envelope for --json output
//
// # Usage
//
//	cmd, args := cli.Parse()
//	app, err := cli.Bootstrap(args)
//	if err != nil {
//	    cli.HandleErrorAndExit(err, args.JSON)
//	}
//	defer app.Close()
//	switch cmd {
//	case cli.CmdUsers:
//	    err = cli.HandleUsers(app, args)
//	// ... other commands
//	}
//
// # Commands Overview
//
// Chat:
//   - tui: Full-screen chat (default)
//   - chat: Line-mode conversation with one user
//   - send: Send one message and exit
//   - users, conversations: Directory and inbox listings
//
// Session and setup:
//   - login, logout, whoami: Manage the stored token
//   - config: Show, locate, create or edit the config file
//   - status: Check the API and the real-time channel
//
// Listing and status commands support --json.
package cli
