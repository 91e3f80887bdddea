// Package sched provides a cancellable interval task shared by the sync loops.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Func is a single tick of a scheduled task. Returning false stops the task.
type Func func(ctx context.Context) bool

// StopReason records why a task loop exited.
type StopReason int

const (
	// StopCompleted means a tick returned false.
	StopCompleted StopReason = iota
	// StopCeiling means MaxDuration elapsed before the task finished.
	StopCeiling
	// StopCancelled means Stop was called or the parent context ended.
	StopCancelled
)

// String returns a short label for logging.
func (r StopReason) String() string {
	switch r {
	case StopCompleted:
		return "completed"
	case StopCeiling:
		return "ceiling"
	default:
		return "cancelled"
	}
}

// Options control how a task is scheduled.
type Options struct {
	// Interval between ticks. Must be positive.
	Interval time.Duration

	// Immediate runs the first tick right away instead of waiting one interval.
	Immediate bool

	// MaxDuration, when positive, hard-stops the task once it elapses even if
	// ticks keep asking to continue. The ceiling timer and the interval ticker
	// are always torn down together.
	MaxDuration time.Duration

	// OnStop runs exactly once when the loop exits, before the task is marked
	// stopped, so a subsequent Start cannot observe a half-finished cycle.
	OnStop func(StopReason)
}

// Task runs a function on a fixed interval until stopped. Ticks are strictly
// sequential: a tick runs to completion before the next fires, so a loop never
// overlaps its own in-flight work.
type Task struct {
	clk clock.Clock

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a Task driven by the given clock.
func New(clk clock.Clock) *Task {
	return &Task{clk: clk}
}

// Start launches the task loop. It reports false when the task is already
// running; the new request is ignored in that case, never stacked.
func (t *Task) Start(ctx context.Context, opts Options, fn Func) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	t.running = true

	go t.run(ctx, opts, fn, cancel, done)
	return true
}

func (t *Task) run(ctx context.Context, opts Options, fn Func, cancel context.CancelFunc, done chan struct{}) {
	reason := StopCancelled
	defer func() {
		cancel()
		if opts.OnStop != nil {
			opts.OnStop(reason)
		}
		t.mu.Lock()
		t.running = false
		t.cancel = nil
		t.mu.Unlock()
		close(done)
	}()

	var ceiling <-chan time.Time
	if opts.MaxDuration > 0 {
		timer := t.clk.Timer(opts.MaxDuration)
		defer timer.Stop()
		ceiling = timer.C
	}

	if opts.Immediate {
		if !fn(ctx) {
			reason = StopCompleted
			return
		}
	}

	ticker := t.clk.Ticker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			reason = StopCancelled
			return
		case <-ceiling:
			reason = StopCeiling
			return
		case <-ticker.C:
			if !fn(ctx) {
				reason = StopCompleted
				return
			}
		}
	}
}

// Stop cancels the task and blocks until the loop has fully exited, OnStop
// included. Safe to call when the task is not running, and safe to call twice.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// IsRunning reports whether the task loop is currently active.
func (t *Task) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
