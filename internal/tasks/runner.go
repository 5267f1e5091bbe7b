// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrStopped is recorded on tasks submitted after Stop.
var ErrStopped = errors.New("task runner stopped")

// =============================================================================
// OPTIONS
// =============================================================================

// Options tunes the runner.
type Options struct {
	// MaxConcurrent caps tasks running at once.
	MaxConcurrent int

	// Timeout bounds each task. Zero means no timeout.
	Timeout time.Duration

	// RatePerSecond paces task starts. Zero disables pacing.
	RatePerSecond float64

	// Burst is the limiter burst when pacing is enabled.
	Burst int

	// HistorySize is how many finished tasks Recent keeps.
	HistorySize int
}

// DefaultOptions returns the settings used for mark-as-read traffic.
func DefaultOptions() Options {
	return Options{
		MaxConcurrent: 4,
		Timeout:       10 * time.Second,
		RatePerSecond: 10,
		Burst:         5,
		HistorySize:   50,
	}
}

// Stats counts tasks by outcome.
type Stats struct {
	Submitted int
	Running   int
	Completed int
	Failed    int
	Canceled  int
}

// =============================================================================
// TASK RUNNER
// =============================================================================

// Runner executes fire-and-forget tasks with bounded concurrency and
// optional pacing. The caller never waits on a task unless it asks to.
type Runner struct {
	opts      Options
	logger    *zap.Logger
	limiter   *rate.Limiter
	semaphore chan struct{}

	// queueCtx is canceled by Stop; it aborts tasks still waiting for a
	// slot or a limiter token. Running tasks keep their own deadline.
	queueCtx    context.Context
	queueCancel context.CancelFunc

	wg sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	pending int
	idle    chan struct{}
	history []*Task
	stats   Stats
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(opts Options, logger *zap.Logger) *Runner {
	defaults := DefaultOptions()
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaults.MaxConcurrent
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaults.HistorySize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Runner{
		opts:        opts,
		logger:      logger.Named("tasks"),
		limiter:     limiter,
		semaphore:   make(chan struct{}, opts.MaxConcurrent),
		queueCtx:    ctx,
		queueCancel: cancel,
		idle:        idle,
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit schedules fn and returns immediately. After Stop the task is
// recorded as canceled and never runs.
func (r *Runner) Submit(description string, fn Func) *Task {
	task := newTask(description, fn)

	r.mu.Lock()
	r.stats.Submitted++
	if r.stopped {
		r.mu.Unlock()
		r.finish(task, TaskStatusCanceled, ErrStopped)
		return task
	}
	if r.pending == 0 {
		r.idle = make(chan struct{})
	}
	r.pending++
	r.wg.Add(1)
	r.mu.Unlock()

	go r.execute(task)
	return task
}

// execute waits for capacity, runs the task and records the outcome.
func (r *Runner) execute(task *Task) {
	defer r.wg.Done()
	defer r.release()

	select {
	case r.semaphore <- struct{}{}:
	case <-r.queueCtx.Done():
		r.finish(task, TaskStatusCanceled, ErrStopped)
		return
	}
	defer func() { <-r.semaphore }()

	if r.limiter != nil {
		if err := r.limiter.Wait(r.queueCtx); err != nil {
			r.finish(task, TaskStatusCanceled, ErrStopped)
			return
		}
	}

	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if r.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
	}
	defer cancel()

	task.transition(TaskStatusRunning, nil)
	r.mu.Lock()
	r.stats.Running++
	r.mu.Unlock()

	err := r.run(ctx, task)

	r.mu.Lock()
	r.stats.Running--
	r.mu.Unlock()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("task timeout after %v: %w", r.opts.Timeout, err)
		}
		r.finish(task, TaskStatusFailed, err)
		return
	}
	r.finish(task, TaskStatusComplete, nil)
}

// run calls the task function, converting a panic into an error.
func (r *Runner) run(ctx context.Context, task *Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panic: %v", p)
		}
	}()
	return task.fn(ctx)
}

func (r *Runner) finish(task *Task, status TaskStatus, err error) {
	if !task.transition(status, err) {
		return
	}

	r.mu.Lock()
	switch status {
	case TaskStatusComplete:
		r.stats.Completed++
	case TaskStatusFailed:
		r.stats.Failed++
	case TaskStatusCanceled:
		r.stats.Canceled++
	}
	r.history = append(r.history, task)
	if over := len(r.history) - r.opts.HistorySize; over > 0 {
		r.history = append([]*Task(nil), r.history[over:]...)
	}
	r.mu.Unlock()

	switch status {
	case TaskStatusFailed:
		r.logger.Warn("background task failed",
			zap.String("task_id", task.ID),
			zap.String("task", task.Description),
			zap.Error(err))
	case TaskStatusCanceled:
		r.logger.Debug("background task canceled",
			zap.String("task_id", task.ID),
			zap.String("task", task.Description))
	default:
		r.logger.Debug("background task complete",
			zap.String("task_id", task.ID),
			zap.String("task", task.Description),
			zap.Duration("duration", task.Duration()))
	}
}

func (r *Runner) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending--
	if r.pending == 0 {
		close(r.idle)
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Wait blocks until every submitted task has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new tasks, cancels tasks still waiting to start and waits
// for running ones to finish. Safe to call more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.queueCancel()
	r.wg.Wait()
}

// Recent returns the most recently finished tasks, oldest first.
func (r *Runner) Recent() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Task(nil), r.history...)
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
