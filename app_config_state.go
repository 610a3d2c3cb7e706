package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"windowresizer/internal/config"
	"windowresizer/internal/hotkeys"
	"windowresizer/internal/session"
	"windowresizer/internal/windowsize"
)

// getConfigSnapshot returns a deep-copied config protected by cfgMu.
// All read access to App.cfg should go through this helper.
func (a *App) getConfigSnapshot() config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return config.Clone(a.cfg)
}

// setConfigSnapshot stores a deep-copied config protected by cfgMu.
// All write access to App.cfg should go through this helper.
func (a *App) setConfigSnapshot(cfg config.Config) {
	a.cfgMu.Lock()
	a.cfg = config.Clone(cfg)
	a.cfgMu.Unlock()
}

// documentPersister writes the store back as part of the whole document.
type documentPersister struct {
	app *App
}

// Persist saves records together with the current settings and marks the
// written content as our own so the watcher does not reload it.
func (p documentPersister) Persist(records []windowsize.Record) error {
	return p.app.saveDocument(records)
}

func (a *App) saveDocument(records []windowsize.Record) error {
	cfg := a.getConfigSnapshot()
	cfg.WindowSizes = records
	saved, err := config.Save(a.configPath, cfg)
	if err != nil {
		return err
	}
	a.setConfigSnapshot(saved)
	a.loadFailed = false
	if a.watcher != nil {
		a.watcher.Acknowledge()
	}
	return nil
}

// applyConfig replaces the engine state with cfg. Dispatcher only.
func (a *App) applyConfig(cfg config.Config) {
	previous := a.getConfigSnapshot()
	a.setConfigSnapshot(cfg)
	a.loadFailed = false

	state := a.controller.State()
	state.DisableInFullScreen = cfg.DisableInFullScreen
	state.Store.Replace(cfg.WindowSizes)
	slog.Info("[config] config applied", "path", a.configPath, "records", state.Store.Len(),
		"disableInFullScreen", cfg.DisableInFullScreen)

	if hotkeysChanged(previous, cfg) {
		a.configureHotkeys(cfg)
	}
}

// reloadFromDisk re-reads the document. A parse failure keeps the running
// state and reports the problem; a document without records keeps it
// silently and returns config.ErrNoRecords. Dispatcher only.
func (a *App) reloadFromDisk() (config.Config, error) {
	cfg, err := config.ReadFile(a.configPath)
	if errors.Is(err, config.ErrNoRecords) {
		slog.Debug("[DEBUG-CONFIG] config without window records ignored", "path", a.configPath)
		return a.getConfigSnapshot(), err
	}
	if err != nil {
		return cfg, err
	}
	a.applyConfig(cfg)
	if a.watcher != nil {
		a.watcher.Acknowledge()
	}
	return cfg, nil
}

// onConfigChanged runs on the watcher's timer goroutine.
func (a *App) onConfigChanged(raw []byte) {
	a.enqueue("config-reload", func(context.Context) {
		cfg, err := config.Decode(raw, a.configPath)
		if errors.Is(err, config.ErrNoRecords) {
			slog.Debug("[DEBUG-CONFIG] config without window records ignored", "path", a.configPath)
			return
		}
		if err != nil {
			slog.Warn("[WARN-CONFIG] external config edit ignored", "path", a.configPath, "error", err)
			a.notifyUser("Config file could not be read; keeping the current settings. Error: " + err.Error())
			return
		}
		a.applyConfig(cfg)
	})
}

func hotkeysChanged(previous config.Config, next config.Config) bool {
	keys := func(c config.Config) []string {
		return []string{c.SaveKey.String(), c.RestoreKey.String(), c.RestoreAllKey.String()}
	}
	return !slices.Equal(keys(previous), keys(next))
}

// configureHotkeys registers the bindings of cfg and rebuilds the keymap.
// Registration failures are reported but never stop the engine.
func (a *App) configureHotkeys(cfg config.Config) {
	save, restore, restoreAll, err := cfg.Bindings()
	if err != nil {
		// Load repairs bindings, so this only happens for hand-built configs.
		slog.Warn("[hotkey] invalid bindings, hotkeys disabled", "error", err)
		a.keymap = session.Keymap{}
		a.stopHotkeys()
		return
	}
	a.keymap = session.Keymap{Save: save, Restore: restore, RestoreAll: restoreAll}
	if a.hotkeys == nil {
		slog.Debug("[DEBUG-hotkey] no hotkey manager, skipping")
		return
	}

	if err := a.hotkeys.Start(a.keymap.Bindings(), a.onHotkey); err != nil {
		failed := hotkeys.FailedBindings(err)
		slog.Warn("[hotkey] registration failed", "failed", failed, "error", err)
		if len(failed) > 0 {
			a.notifyUser(fmt.Sprintf("Hotkey registration failed: %v", failed))
		} else {
			a.notifyUser("Hotkey registration failed: " + err.Error())
		}
	}
	slog.Info("[hotkey] bindings active", "bindings", a.hotkeys.ActiveBindings())
}

func (a *App) stopHotkeys() {
	if a.hotkeys == nil {
		return
	}
	if err := a.hotkeys.Stop(); err != nil {
		slog.Warn("[hotkey] stop failed", "error", err)
	}
}
