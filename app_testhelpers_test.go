package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"windowresizer/internal/config"
	"windowresizer/internal/configwatch"
	"windowresizer/internal/hotkeys"
	"windowresizer/internal/ipc"
	"windowresizer/internal/sessionlog"
	"windowresizer/internal/windowsize"
	"windowresizer/internal/winctl"
)

// NOTE: Tests in this package replace package-level function variables
// (newPipeServerFn, sendFn, ...). Do not use t.Parallel() here.

type fakeWindow struct {
	process string
	title   string
	rect    windowsize.Rect
	state   windowsize.State
}

// fakeDesktop is driven from the test goroutine and the dispatcher.
type fakeDesktop struct {
	mu         sync.Mutex
	windows    map[winctl.Handle]*fakeWindow
	order      []winctl.Handle
	foreground winctl.Handle
	fullScreen bool
	moved      map[winctl.Handle]windowsize.Rect
	maximized  map[winctl.Handle]bool
}

func newFakeDesktop() *fakeDesktop {
	return &fakeDesktop{
		windows:   map[winctl.Handle]*fakeWindow{},
		moved:     map[winctl.Handle]windowsize.Rect{},
		maximized: map[winctl.Handle]bool{},
	}
}

func (d *fakeDesktop) add(h winctl.Handle, w *fakeWindow) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows[h] = w
	d.order = append(d.order, h)
}

func (d *fakeDesktop) setForeground(h winctl.Handle) {
	d.mu.Lock()
	d.foreground = h
	d.mu.Unlock()
}

func (d *fakeDesktop) setFullScreen(full bool) {
	d.mu.Lock()
	d.fullScreen = full
	d.mu.Unlock()
}

func (d *fakeDesktop) movedRect(h winctl.Handle) (windowsize.Rect, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.moved[h]
	return r, ok
}

func (d *fakeDesktop) OpenWindows() ([]winctl.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]winctl.Handle(nil), d.order...), nil
}

func (d *fakeDesktop) ForegroundWindow() (winctl.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.foreground == 0 {
		return 0, winctl.ErrNoWindow
	}
	return d.foreground, nil
}

func (d *fakeDesktop) IsChildWindow(winctl.Handle) bool { return false }

func (d *fakeDesktop) WindowRect(h winctl.Handle) (windowsize.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[h]
	if !ok {
		return windowsize.Rect{}, winctl.ErrNoWindow
	}
	return w.rect, nil
}

func (d *fakeDesktop) WindowState(h winctl.Handle) (windowsize.State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[h]
	if !ok {
		return windowsize.StateNormal, winctl.ErrNoWindow
	}
	return w.state, nil
}

func (d *fakeDesktop) MoveWindow(h winctl.Handle, rect windowsize.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.moved[h] = rect
	return nil
}

func (d *fakeDesktop) MaximizeWindow(h winctl.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maximized[h] = true
	return nil
}

func (d *fakeDesktop) ResolveProcess(h winctl.Handle) (winctl.ProcessInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[h]
	if !ok {
		return winctl.ProcessInfo{}, winctl.ErrProcessNotFound
	}
	return winctl.ProcessInfo{ModuleName: w.process, WindowTitle: w.title}, nil
}

func (d *fakeDesktop) IsForegroundFullScreen() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fullScreen, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ string, message string) error {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) snapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func (n *recordingNotifier) contains(substr string) bool {
	for _, m := range n.snapshot() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type fakeHotkeys struct {
	mu       sync.Mutex
	starts   [][]string
	onPress  func(hotkeys.Binding)
	startErr error
	stopped  int
}

func (f *fakeHotkeys) Start(bindings []hotkeys.Binding, onPress func(hotkeys.Binding)) error {
	names := make([]string, 0, len(bindings))
	for _, b := range bindings {
		names = append(names, b.Normalized())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, names)
	f.onPress = onPress
	return f.startErr
}

func (f *fakeHotkeys) Stop() error {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
	return nil
}

func (f *fakeHotkeys) ActiveBindings() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.starts) == 0 {
		return nil
	}
	return append([]string(nil), f.starts[len(f.starts)-1]...)
}

func (f *fakeHotkeys) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

func (f *fakeHotkeys) press(t *testing.T, spec string) {
	t.Helper()
	b, err := hotkeys.ParseBinding(spec)
	if err != nil {
		t.Fatalf("ParseBinding(%q) error = %v", spec, err)
	}
	f.mu.Lock()
	onPress := f.onPress
	f.mu.Unlock()
	if onPress == nil {
		t.Fatal("hotkeys were never started")
	}
	onPress(b)
}

type fakeEvents struct {
	mu       sync.Mutex
	onShown  func(winctl.Handle)
	startErr error
	stopped  bool
}

func (f *fakeEvents) Start(onShown func(winctl.Handle)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onShown = onShown
	return f.startErr
}

func (f *fakeEvents) Stop() error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	return nil
}

func (f *fakeEvents) fire(h winctl.Handle) {
	f.mu.Lock()
	onShown := f.onShown
	f.mu.Unlock()
	onShown(h)
}

var testPipeSeq atomic.Int64

// testEngine is a started App with fake collaborators.
type testEngine struct {
	app        *App
	desktop    *fakeDesktop
	notifier   *recordingNotifier
	hotkeys    *fakeHotkeys
	events     *fakeEvents
	configPath string
	pipeName   string
	stop       func()
}

type engineOption func(*testEngine)

func withEventStartError(err error) engineOption {
	return func(e *testEngine) { e.events.startErr = err }
}

func withHotkeyStartError(err error) engineOption {
	return func(e *testEngine) { e.hotkeys.startErr = err }
}

const testWatchDelay = 50 * time.Millisecond

// useTestConfigDir points the roaming config directory at a temp dir and
// returns the document path inside it.
func useTestConfigDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("APPDATA", root)
	t.Setenv("LOCALAPPDATA", "")
	return filepath.Join(root, "WindowResizer", config.FileName)
}

func writeDocument(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// startTestEngine starts an engine on document (empty means no file).
func startTestEngine(t *testing.T, document string, opts ...engineOption) *testEngine {
	t.Helper()
	e := &testEngine{
		desktop:    newFakeDesktop(),
		notifier:   &recordingNotifier{},
		hotkeys:    &fakeHotkeys{},
		events:     &fakeEvents{},
		configPath: useTestConfigDir(t),
		pipeName:   fmt.Sprintf(`\\.\pipe\windowresizer-test-main-%d-%d`, os.Getpid(), testPipeSeq.Add(1)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if document != "" {
		writeDocument(t, e.configPath, document)
	}

	origPipeName := defaultPipeNameFn
	origWatcher := newConfigWatcherFn
	t.Cleanup(func() {
		defaultPipeNameFn = origPipeName
		newConfigWatcherFn = origWatcher
	})
	defaultPipeNameFn = func() string { return e.pipeName }
	newConfigWatcherFn = func(path string, _ time.Duration, onChange func([]byte)) (*configwatch.Watcher, error) {
		return configwatch.New(path, testWatchDelay, onChange)
	}

	e.app = NewApp(e.configPath, appDeps{
		windows:  e.desktop,
		notifier: e.notifier,
		hotkeys:  e.hotkeys,
		events:   e.events,
		journal:  sessionlog.NewJournal(sessionlog.Options{}),
	})
	if err := e.app.startup(context.Background()); err != nil {
		t.Fatalf("startup() error = %v", err)
	}
	stopped := false
	t.Cleanup(func() {
		if !stopped {
			e.app.shutdown()
		}
	})
	e.stop = func() {
		stopped = true
		e.app.shutdown()
	}
	return e
}

func (e *testEngine) shutdown() { e.stop() }

// loadDocument reads the document from disk.
func (e *testEngine) loadDocument(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(e.configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

// sync waits until every job queued so far has run.
func (e *testEngine) sync(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.app.call(ctx, "test-sync", func(context.Context) {}); err != nil {
		t.Fatalf("dispatcher sync failed: %v", err)
	}
}

func (e *testEngine) execute(t *testing.T, command string) ipc.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.app.Execute(ctx, ipc.Request{Command: command})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

const notepadDocument = `disable_in_full_screen: true
save_key: {modifier_keys: [Ctrl, Alt], key: S}
restore_key: {modifier_keys: [Ctrl, Alt], key: R}
restore_all_key: {modifier_keys: [Ctrl, Alt], key: T}
window_sizes:
  - name: notepad.exe
    title: "*"
    rect: {left: 10, top: 20, right: 810, bottom: 620}
    state: normal
    auto_resize: true
`
