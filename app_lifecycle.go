package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"windowresizer/internal/config"
	"windowresizer/internal/configwatch"
	"windowresizer/internal/ipc"
	"windowresizer/internal/session"
	"windowresizer/internal/sessionlog"
	"windowresizer/internal/windowsize"
	"windowresizer/internal/winevent"
	"windowresizer/internal/workerutil"
)

// Test seams.
var (
	newPipeServerFn    = ipc.NewPipeServer
	newConfigWatcherFn = configwatch.New
	defaultPipeNameFn  = ipc.DefaultPipeName
)

const (
	shutdownWaitTimeout = 10 * time.Second
	notificationTitle   = "WindowResizer"
)

func (a *App) addPendingConfigLoadWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	a.startupWarnMu.Lock()
	a.configLoadWarnings = append(a.configLoadWarnings, trimmed)
	a.startupWarnMu.Unlock()
}

func (a *App) consumePendingConfigLoadWarning() string {
	a.startupWarnMu.Lock()
	defer a.startupWarnMu.Unlock()
	if len(a.configLoadWarnings) == 0 {
		return ""
	}
	message := strings.Join(a.configLoadWarnings, "\n")
	a.configLoadWarnings = nil
	return message
}

func (a *App) flushPendingConfigLoadWarnings() {
	if message := a.consumePendingConfigLoadWarning(); message != "" {
		a.notifyUser(message)
	}
}

func (a *App) notifyUser(message string) {
	if a.notifier == nil {
		slog.Info("[notify] " + message)
		return
	}
	if err := a.notifier.Notify(notificationTitle, message); err != nil {
		slog.Warn("[notify] notification failed", "error", err)
	}
}

// startup loads the document and starts every trigger source. Only a
// missing window-control surface is fatal; everything else degrades with a
// warning shown to the user.
func (a *App) startup(ctx context.Context) error {
	if a.windows == nil {
		return errors.New("window control is required")
	}
	a.ctx, a.cancel = context.WithCancel(ctx)

	for _, message := range config.ConsumeDefaultPathWarnings() {
		a.addPendingConfigLoadWarning(message)
	}
	cfg, err := config.EnsureFile(a.configPath)
	if err != nil {
		// Load failures are non-fatal: continue with defaults and tell the user.
		cfg = config.DefaultConfig()
		a.loadFailed = true
		a.addPendingConfigLoadWarning(
			"Failed to load config file at startup. Running with defaults. Error: " + err.Error(),
		)
		slog.Warn("[WARN-CONFIG] failed to load config", "path", a.configPath, "error", err)
	}
	a.setConfigSnapshot(cfg)
	a.initSessionLog()

	state := &session.State{
		DisableInFullScreen: cfg.DisableInFullScreen,
		Store:               windowsize.NewStore(cfg.WindowSizes),
	}
	a.controller = session.NewController(state, a.windows, a.notifier, documentPersister{app: a})
	a.configureHotkeys(cfg)
	a.startDispatcher()

	if a.events != nil {
		if err := a.events.Start(a.onWindowShown); err != nil {
			if errors.Is(err, winevent.ErrUnsupported) {
				slog.Debug("[DEBUG-winevent] window events unavailable, auto-resize disabled", "error", err)
			} else {
				slog.Warn("[winevent] window event hook failed, auto-resize disabled", "error", err)
				a.addPendingConfigLoadWarning("Automatic resizing of new windows is unavailable. Error: " + err.Error())
			}
		}
	}

	a.startConfigWatcher()

	a.pipeServer = newPipeServerFn(defaultPipeNameFn(), a)
	if err := a.pipeServer.Start(); err != nil {
		slog.Error("[ipc] pipe server failed", "error", err)
		a.addPendingConfigLoadWarning(
			"Failed to start the command pipe. Remote commands are unavailable. Error: " + err.Error(),
		)
	} else {
		slog.Info("[ipc] pipe server listening", "pipe", a.pipeServer.PipeName())
	}

	slog.Info("[session] engine started", "config", a.configPath, "records", state.Store.Len())
	a.flushPendingConfigLoadWarnings()
	return nil
}

func (a *App) startDispatcher() {
	var once sync.Once
	markDone := func() { once.Do(func() { close(a.dispatcherDone) }) }
	var dispatchWG sync.WaitGroup
	workerutil.Supervise(a.ctx, &dispatchWG, "dispatcher", a.runDispatcher, workerutil.Policy{
		OnGiveUp: func(string) {
			a.addPendingConfigLoadWarning("The trigger dispatcher stopped after repeated failures. Restart WindowResizer.")
			a.flushPendingConfigLoadWarnings()
		},
	})
	a.bgWG.Go(func() {
		dispatchWG.Wait()
		markDone()
	})
}

func (a *App) startConfigWatcher() {
	watcher, err := newConfigWatcherFn(a.configPath, configwatch.DefaultDelay, a.onConfigChanged)
	if err != nil {
		slog.Warn("[configwatch] config watcher unavailable, external edits need `reload`", "error", err)
		return
	}
	a.watcher = watcher
	workerutil.Supervise(a.ctx, &a.bgWG, "config-watcher", watcher.Run, workerutil.Policy{})
}

// shutdown stops all trigger sources, drains the dispatcher and writes the
// records one last time.
func (a *App) shutdown() {
	if a.events != nil {
		if err := a.events.Stop(); err != nil {
			slog.Warn("[winevent] stop failed", "error", err)
		}
	}
	a.stopHotkeys()
	if a.pipeServer != nil {
		if err := a.pipeServer.Stop(); err != nil {
			slog.Warn("[ipc] pipe server stop failed", "error", err)
		}
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("[configwatch] close failed", "error", err)
		}
	}

	if a.cancel != nil {
		a.cancel()
	}
	switch {
	case !waitWithTimeout(a.bgWG.Wait, shutdownWaitTimeout):
		// The dispatcher may still own the store; skip the final save.
		slog.Warn("[session] timed out waiting for background workers during shutdown")
	case a.loadFailed:
		slog.Warn("[WARN-CONFIG] final save skipped, the document on disk was never loaded", "path", a.configPath)
	case a.controller != nil:
		if err := a.saveDocument(a.controller.State().Store.Records()); err != nil {
			slog.Warn("[WARN-CONFIG] final save failed", "path", a.configPath, "error", err)
		}
	}

	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			slog.Warn("[session-log] close failed", "error", err)
		}
	}
	slog.Info("[session] engine stopped")
}

// initSessionLog opens this run's journal file next to the config document.
// Non-fatal: the in-memory history keeps working on failure.
func (a *App) initSessionLog() {
	dir := filepath.Join(filepath.Dir(a.configPath), sessionlog.DirName)
	if err := a.journal.Open(dir); err != nil {
		slog.Warn("[session-log] failed to open session log", "dir", dir, "error", err)
		return
	}
	slog.Info("[session-log] initialized", "path", a.journal.Path())
}

func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	// Best effort timeout guard for shutdown paths. The waiting goroutine may
	// outlive timeout when waitFn blocks indefinitely, but this function is only
	// used during process shutdown where eventual completion is expected.
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
