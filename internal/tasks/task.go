// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks runs best-effort background work such as mark-as-read
// calls. Failures are logged and recorded; they never reach the caller.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus represents the current state of a background task.
type TaskStatus string

const (
	// TaskStatusQueued indicates the task is waiting for a slot
	TaskStatusQueued TaskStatus = "Queued"

	// TaskStatusRunning indicates the task is currently executing
	TaskStatusRunning TaskStatus = "Running"

	// TaskStatusComplete indicates the task finished successfully
	TaskStatusComplete TaskStatus = "Complete"

	// TaskStatusFailed indicates the task returned an error or timed out
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCanceled indicates the runner stopped before the task ran
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusComplete || s == TaskStatusFailed || s == TaskStatusCanceled
}

// Func is the unit of work. It must honor ctx cancellation.
type Func func(ctx context.Context) error

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// Task is one submitted unit of background work.
type Task struct {
	ID          string
	Description string

	fn Func

	mu        sync.RWMutex
	status    TaskStatus
	submitted time.Time
	started   time.Time
	ended     time.Time
	err       error
	done      chan struct{}
}

// newTask creates a queued task.
func newTask(description string, fn Func) *Task {
	return &Task{
		ID:          uuid.NewString(),
		Description: description,
		fn:          fn,
		status:      TaskStatusQueued,
		submitted:   time.Now(),
		done:        make(chan struct{}),
	}
}

// Status returns the current status.
func (t *Task) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Err returns the failure, if any.
func (t *Task) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Duration returns how long the task has been running or took to run.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.started.IsZero() {
		return 0
	}
	if t.ended.IsZero() {
		return time.Since(t.started)
	}
	return t.ended.Sub(t.started)
}

// transition moves the task to status. Terminal states are sticky.
func (t *Task) transition(status TaskStatus, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return false
	}
	switch status {
	case TaskStatusRunning:
		if t.status != TaskStatusQueued {
			return false
		}
		t.started = time.Now()
	default:
		t.ended = time.Now()
		t.err = err
		defer close(t.done)
	}
	t.status = status
	return true
}

// Done is closed once the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Summary returns a one-line summary of the task.
func (t *Task) Summary() string {
	status := t.Status()
	summary := fmt.Sprintf("[%s] %s - %s", t.ID[:8], t.Description, status)
	if d := t.Duration(); d > 0 {
		summary += fmt.Sprintf(" (%.1fs)", d.Seconds())
	}
	if err := t.Err(); err != nil {
		summary += ": " + err.Error()
	}
	return summary
}
