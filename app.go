package main

import (
	"context"
	"sync"

	"windowresizer/internal/config"
	"windowresizer/internal/configwatch"
	"windowresizer/internal/hotkeys"
	"windowresizer/internal/ipc"
	"windowresizer/internal/notify"
	"windowresizer/internal/session"
	"windowresizer/internal/sessionlog"
	"windowresizer/internal/winctl"
	"windowresizer/internal/winevent"
)

// hotkeyRegistrar is the subset of *hotkeys.Manager the engine uses.
type hotkeyRegistrar interface {
	Start(bindings []hotkeys.Binding, onPress func(hotkeys.Binding)) error
	Stop() error
	ActiveBindings() []string
}

// windowEventSource is the subset of *winevent.Watcher the engine uses.
type windowEventSource interface {
	Start(onShown func(winctl.Handle)) error
	Stop() error
}

// appDeps are the platform collaborators of the engine.
type appDeps struct {
	windows  session.WindowControl
	notifier session.Notifier
	hotkeys  hotkeyRegistrar
	events   windowEventSource
	journal  *sessionlog.Journal
}

func defaultAppDeps(journal *sessionlog.Journal) appDeps {
	return appDeps{
		windows:  winctl.New(),
		notifier: notify.New(notify.DefaultRepeatWindow),
		hotkeys:  hotkeys.NewManager(),
		events:   winevent.NewWatcher(),
		journal:  journal,
	}
}

// App is the running engine: it owns the record store and feeds every
// trigger through one dispatcher goroutine.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	configPath string
	cfgMu      sync.RWMutex
	cfg        config.Config

	startupWarnMu      sync.Mutex
	configLoadWarnings []string

	windows  session.WindowControl
	notifier session.Notifier
	hotkeys  hotkeyRegistrar
	events   windowEventSource
	journal  *sessionlog.Journal

	watcher    *configwatch.Watcher
	pipeServer *ipc.PipeServer

	// Owned by the dispatcher goroutine once startup returns.
	controller *session.Controller
	keymap     session.Keymap
	// loadFailed keeps an unreadable document from being overwritten by
	// the final save until it is saved or reloaded successfully.
	loadFailed bool

	jobs           chan job
	dispatcherDone chan struct{}
	bgWG           sync.WaitGroup
}

// NewApp creates an engine bound to the document at configPath.
func NewApp(configPath string, deps appDeps) *App {
	if deps.journal == nil {
		deps.journal = sessionlog.NewJournal(sessionlog.Options{})
	}
	return &App{
		configPath:     configPath,
		cfg:            config.DefaultConfig(),
		windows:        deps.windows,
		notifier:       deps.notifier,
		hotkeys:        deps.hotkeys,
		events:         deps.events,
		journal:        deps.journal,
		jobs:           make(chan job, jobQueueSize),
		dispatcherDone: make(chan struct{}),
	}
}
