// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks runs best-effort background work.
//
// The chat client uses it for mark-as-read calls: opening a thread or
// receiving a message addressed to the current user submits a task and
// moves on. A failed task is logged and counted; it is never retried and
// never surfaced to the view.
//
// # Key Types
//
//   - Task: One submitted unit of work with status, timing and error
//   - Runner: Bounded-concurrency executor with rate pacing and per-task timeout
//   - Options: Concurrency, timeout, rate and history settings
//
// # Usage
//
//	runner := tasks.NewRunner(tasks.DefaultOptions(), logger)
//	defer runner.Stop()
//
//	runner.Submit("mark read m1", func(ctx context.Context) error {
//	    return client.MarkRead(ctx, "m1")
//	})
package tasks
