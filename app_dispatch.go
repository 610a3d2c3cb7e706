package main

import (
	"context"
	"errors"
	"log/slog"

	"windowresizer/internal/hotkeys"
	"windowresizer/internal/session"
	"windowresizer/internal/winctl"
	"windowresizer/internal/workerutil"
)

// jobQueueSize bounds triggers waiting for the dispatcher. Producers never
// block: hotkey and window-event callbacks run on OS message loop threads.
const jobQueueSize = 64

var errDispatcherStopped = errors.New("engine is shutting down")

// job is one unit of work on the dispatcher goroutine. Everything that
// touches the record store runs as a job.
type job struct {
	name string
	run  func(ctx context.Context)
}

// runDispatcher executes jobs one at a time until ctx is done. A panicking
// job is logged and the loop continues.
func (a *App) runDispatcher(ctx context.Context) {
	slog.Debug("[DEBUG-DISPATCH] dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Debug("[DEBUG-DISPATCH] dispatcher stopped")
			return
		case j := <-a.jobs:
			if workerutil.Guard("dispatch:"+j.name, func() { j.run(ctx) }) {
				a.notifyUser("Internal error while running " + j.name + "; see the session log.")
			}
		}
	}
}

// enqueue submits a job without waiting. It reports false when the queue
// is full or the engine is stopping.
func (a *App) enqueue(name string, run func(ctx context.Context)) bool {
	if a.ctx != nil && a.ctx.Err() != nil {
		return false
	}
	select {
	case a.jobs <- job{name: name, run: run}:
		return true
	default:
		slog.Warn("[DEBUG-DISPATCH] job queue full, trigger dropped", "job", name)
		return false
	}
}

// call submits a job and waits for it to finish.
func (a *App) call(ctx context.Context, name string, run func(ctx context.Context)) error {
	done := make(chan struct{})
	wrapped := job{name: name, run: func(jobCtx context.Context) {
		defer close(done)
		merged, cancel := mergeCancel(jobCtx, ctx)
		defer cancel()
		run(merged)
	}}

	select {
	case a.jobs <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-a.dispatcherDone:
		return errDispatcherStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.dispatcherDone:
		return errDispatcherStopped
	}
}

// mergeCancel returns a context done when either base or other is done.
// Values come from other so request-scoped ids survive.
func mergeCancel(base context.Context, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(other)
	stop := context.AfterFunc(base, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

// onHotkey runs on the hotkey message loop thread.
func (a *App) onHotkey(pressed hotkeys.Binding) {
	a.enqueue("hotkey", func(ctx context.Context) {
		action := a.keymap.Action(pressed)
		if action == session.ActionNone {
			slog.Debug("[DEBUG-hotkey] press without action", "binding", pressed.String())
			return
		}
		a.runAction(session.WithTrigger(ctx, "hotkey"), action)
	})
}

// onWindowShown runs on the window event hook thread.
func (a *App) onWindowShown(h winctl.Handle) {
	a.enqueue("auto-resize", func(ctx context.Context) {
		ctx = session.WithTrigger(ctx, "window-event")
		if _, err := a.controller.AutoResize(ctx, h); err != nil {
			logTriggerError(ctx, "auto-resize", err)
		}
	})
}

// runAction runs a hotkey action. Dispatcher only.
func (a *App) runAction(ctx context.Context, action session.Action) {
	var err error
	switch action {
	case session.ActionSave:
		_, err = a.controller.Save(ctx)
	case session.ActionRestore:
		_, err = a.controller.Restore(ctx)
	case session.ActionRestoreAll:
		_, err = a.controller.RestoreAll(ctx)
	default:
		return
	}
	if err != nil {
		logTriggerError(ctx, action.String(), err)
	}
}

// logTriggerError logs a failed trigger at a level matching its cause.
func logTriggerError(ctx context.Context, trigger string, err error) {
	id := session.TriggerID(ctx)
	switch {
	case errors.Is(err, session.ErrSuppressed), errors.Is(err, session.ErrMinimized):
		slog.Debug("[DEBUG-SESSION] trigger skipped", "trigger", trigger, "trigger_id", id, "reason", err)
	case errors.Is(err, winctl.ErrProcessNotFound), errors.Is(err, winctl.ErrNoWindow):
		slog.Debug("[DEBUG-SESSION] trigger found no usable window", "trigger", trigger, "trigger_id", id, "error", err)
	case errors.Is(err, context.Canceled):
		slog.Debug("[DEBUG-SESSION] trigger cancelled", "trigger", trigger, "trigger_id", id)
	default:
		slog.Warn("[WARN-SESSION] trigger failed", "trigger", trigger, "trigger_id", id, "error", err)
	}
}
