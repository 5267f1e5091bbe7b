// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages sarthi's configuration.
//
// # Configuration Precedence
//
// Highest first:
//   - Environment variables (SARTHI_*), including values from a .env file
//   - ~/.sarthi/config.toml
//   - ~/.sarthi/config.yaml
//   - Built-in defaults
//
// SARTHI_HOME replaces ~/.sarthi as the directory for every file.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.NewClient(cfg.API.BaseURL, token).WithTimeout(cfg.API.Timeout())
//
// Watch reloads the file on change and hands each new Config to a callback;
// the TUI uses it to pick up theme and timestamp changes without restart.
package config
