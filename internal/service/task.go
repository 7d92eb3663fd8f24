package service

import (
	"context"
	"sync"
	"time"
)

// TickFunc is one run of a scheduled task. Returning true ends the task.
type TickFunc func(ctx context.Context) (done bool)

// Task is a restartable periodic job with a single live run at a time.
type Task struct {
	name      string
	interval  time.Duration
	immediate bool
	tick      TickFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTask builds a stopped task. With immediate set the first tick runs on Start,
// unless the parent context is already done.
func NewTask(name string, interval time.Duration, immediate bool, tick TickFunc) *Task {
	return &Task{name: name, interval: interval, immediate: immediate, tick: tick}
}

func (t *Task) Name() string { return t.name }

// Start launches the task under parent. It reports false if a run is already live.
func (t *Task) Start(parent context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	t.cancel, t.done = cancel, done
	go t.run(ctx, cancel, done)
	return true
}

func (t *Task) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer t.finish(cancel, done)

	if ctx.Err() != nil {
		return
	}
	if t.immediate && t.tick(ctx) {
		return
	}
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if ctx.Err() != nil {
				return
			}
			if t.tick(ctx) {
				return
			}
		}
	}
}

func (t *Task) finish(cancel context.CancelFunc, done chan struct{}) {
	cancel()
	t.mu.Lock()
	if t.done == done {
		t.cancel, t.done = nil, nil
	}
	t.mu.Unlock()
	close(done)
}

// Stop cancels the live run and waits for it to return.
// It must not be called from the task's own tick.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a run is live.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}
