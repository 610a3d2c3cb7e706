// Package workerutil supervises long-running background goroutines.
package workerutil

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultMaxRestarts    = 10
)

// Policy controls how a panicking worker is restarted. Zero fields select
// the defaults (100ms doubling up to 5s, 10 runs).
type Policy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxRuns bounds how many times the worker is started in total.
	// 1 disables restarts.
	MaxRuns int

	// OnPanic runs after each recovered panic. May be nil.
	OnPanic func(worker string, attempt int, recovered any)
	// OnGiveUp runs once MaxRuns panics have been recovered. May be nil.
	OnGiveUp func(worker string)
}

func (p Policy) withDefaults() Policy {
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = defaultInitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = defaultMaxBackoff
	}
	if p.MaxRuns <= 0 {
		p.MaxRuns = defaultMaxRestarts
	}
	if p.MaxBackoff < p.InitialBackoff {
		slog.Warn("[DEBUG-PANIC] MaxBackoff < InitialBackoff, using InitialBackoff as MaxBackoff",
			"initialBackoff", p.InitialBackoff, "maxBackoff", p.MaxBackoff)
		p.MaxBackoff = p.InitialBackoff
	}
	return p
}

// Supervise runs fn in a goroutine tracked by wg. A panic is logged with its
// stack and fn is restarted after an exponential backoff until it returns
// normally, ctx is cancelled, or MaxRuns is reached.
func Supervise(ctx context.Context, wg *sync.WaitGroup, name string, fn func(context.Context), p Policy) {
	p = p.withDefaults()
	wg.Go(func() {
		supervise(ctx, name, fn, p)
	})
}

func supervise(ctx context.Context, name string, fn func(context.Context), p Policy) {
	delay := p.InitialBackoff
	for run := 1; run <= p.MaxRuns; run++ {
		recovered, panicked := runOnce(ctx, name, fn)
		if !panicked || ctx.Err() != nil {
			return
		}
		if p.OnPanic != nil {
			p.OnPanic(name, run, recovered)
		}
		if run == p.MaxRuns {
			break
		}

		slog.Warn("[DEBUG-PANIC] restarting worker after panic",
			"worker", name, "restartDelay", delay, "attempt", run)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = nextBackoff(delay, p.MaxBackoff)
	}

	slog.Error("[DEBUG-PANIC] worker exceeded max restarts, giving up",
		"worker", name, "maxRuns", p.MaxRuns)
	if p.OnGiveUp != nil {
		p.OnGiveUp(name)
	}
}

func runOnce(ctx context.Context, name string, fn func(context.Context)) (recovered any, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[DEBUG-PANIC] background goroutine recovered from panic",
				"worker", name, "panic", r, "stack", string(debug.Stack()))
			recovered, panicked = r, true
		}
	}()
	fn(ctx)
	return nil, false
}

// Guard runs fn and converts a panic into a logged error-level record.
// It reports whether fn panicked. Used for single callbacks that must not
// take their caller down, such as one dispatched trigger.
func Guard(name string, fn func()) (panicked bool) {
	_, panicked = runOnce(context.Background(), name, func(context.Context) { fn() })
	return panicked
}

// nextBackoff doubles current, capped at maxBackoff and guarded against overflow.
func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	if current <= 0 {
		return defaultInitialBackoff
	}
	next := current * 2
	if next > maxBackoff || next < current {
		return maxBackoff
	}
	return next
}
