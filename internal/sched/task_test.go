package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settle() { time.Sleep(20 * time.Millisecond) }

func advance(clk *clock.Mock, d time.Duration) {
	settle()
	clk.Add(d)
	settle()
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

func TestTaskTicksOnInterval(t *testing.T) {
	clk := clock.NewMock()
	task := New(clk)
	var ticks atomic.Int32

	ok := task.Start(context.Background(), Options{Interval: time.Second}, func(ctx context.Context) bool {
		ticks.Add(1)
		return true
	})
	require.True(t, ok)
	defer task.Stop()

	settle()
	assert.Zero(t, ticks.Load(), "no tick before the first interval without Immediate")

	advance(clk, time.Second)
	waitFor(t, func() bool { return ticks.Load() == 1 }, "first tick")

	advance(clk, 2*time.Second)
	waitFor(t, func() bool { return ticks.Load() == 3 }, "two more ticks")
}

func TestTaskImmediateFirstTick(t *testing.T) {
	clk := clock.NewMock()
	task := New(clk)
	var ticks atomic.Int32

	task.Start(context.Background(), Options{Interval: time.Second, Immediate: true}, func(ctx context.Context) bool {
		ticks.Add(1)
		return true
	})
	defer task.Stop()

	waitFor(t, func() bool { return ticks.Load() == 1 }, "immediate tick without advancing time")
}

func TestTaskStopsWhenFuncReturnsFalse(t *testing.T) {
	clk := clock.NewMock()
	task := New(clk)
	var reason StopReason
	gotReason := make(chan struct{})

	task.Start(context.Background(), Options{
		Interval: time.Second,
		OnStop: func(r StopReason) {
			reason = r
			close(gotReason)
		},
	}, func(ctx context.Context) bool {
		return false
	})

	advance(clk, time.Second)
	select {
	case <-gotReason:
	case <-time.After(2 * time.Second):
		t.Fatal("OnStop never ran")
	}
	assert.Equal(t, StopCompleted, reason)
	assert.False(t, task.IsRunning())
}

func TestTaskCeilingStopsLongRun(t *testing.T) {
	clk := clock.NewMock()
	task := New(clk)
	var ticks atomic.Int32
	var reason StopReason
	gotReason := make(chan struct{})

	task.Start(context.Background(), Options{
		Interval:    time.Second,
		MaxDuration: 3500 * time.Millisecond,
		OnStop: func(r StopReason) {
			reason = r
			close(gotReason)
		},
	}, func(ctx context.Context) bool {
		ticks.Add(1)
		return true
	})

	for i := 0; i < 4; i++ {
		advance(clk, time.Second)
	}
	select {
	case <-gotReason:
	case <-time.After(2 * time.Second):
		t.Fatal("ceiling never fired")
	}
	assert.Equal(t, StopCeiling, reason)
	assert.GreaterOrEqual(t, ticks.Load(), int32(3), "ticks before the ceiling still ran")
	waitFor(t, func() bool { return !task.IsRunning() }, "task wound down")
}

func TestTaskStopCancelsAndWaits(t *testing.T) {
	clk := clock.NewMock()
	task := New(clk)
	var stops atomic.Int32

	task.Start(context.Background(), Options{
		Interval: time.Second,
		OnStop:   func(StopReason) { stops.Add(1) },
	}, func(ctx context.Context) bool { return true })

	settle()
	task.Stop()
	assert.False(t, task.IsRunning())
	assert.Equal(t, int32(1), stops.Load(), "OnStop ran exactly once and before Stop returned")

	task.Stop() // second stop is a no-op
	assert.Equal(t, int32(1), stops.Load())
}

func TestTaskRejectsDoubleStart(t *testing.T) {
	clk := clock.NewMock()
	task := New(clk)

	require.True(t, task.Start(context.Background(), Options{Interval: time.Second}, func(ctx context.Context) bool { return true }))
	settle()
	assert.False(t, task.Start(context.Background(), Options{Interval: time.Second}, func(ctx context.Context) bool { return true }),
		"second start while running must be refused")

	task.Stop()
	assert.True(t, task.Start(context.Background(), Options{Interval: time.Second}, func(ctx context.Context) bool { return true }),
		"restart after stop is allowed")
	task.Stop()
}

func TestTaskParentContextCancellation(t *testing.T) {
	clk := clock.NewMock()
	task := New(clk)
	ctx, cancel := context.WithCancel(context.Background())
	var reason StopReason
	gotReason := make(chan struct{})

	task.Start(ctx, Options{
		Interval: time.Second,
		OnStop: func(r StopReason) {
			reason = r
			close(gotReason)
		},
	}, func(ctx context.Context) bool { return true })

	settle()
	cancel()
	select {
	case <-gotReason:
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation never stopped the task")
	}
	assert.Equal(t, StopCancelled, reason)
	waitFor(t, func() bool { return !task.IsRunning() }, "task wound down")
}
