//go:build windows

package winevent

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"windowresizer/internal/winctl"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWinEventHook    = user32.NewProc("SetWinEventHook")
	procUnhookWinEvent     = user32.NewProc("UnhookWinEvent")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPeekMessageW       = user32.NewProc("PeekMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessageW   = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
)

const (
	wineventOutOfContext   = 0x0000
	wineventSkipOwnProcess = 0x0002

	wmQuit     = 0x0012
	pmNoRemove = 0x0000
)

// winMsg mirrors the Win32 MSG struct.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	ptX      int32
	ptY      int32
	lPrivate uint32
}

// The hook callback is process-global; it forwards to the one running loop.
var (
	hookMu      sync.Mutex
	hookTracker *tracker
	hookNotify  func(winctl.Handle)

	hookCallback = windows.NewCallback(func(_ uintptr, event uintptr, hwnd uintptr, idObject uintptr, idChild uintptr, _ uintptr, _ uintptr) uintptr {
		hookMu.Lock()
		tr, notify := hookTracker, hookNotify
		var isNew bool
		if tr != nil {
			isNew = tr.observe(uint32(event), winctl.Handle(hwnd), int32(idObject), int32(idChild), isVisible)
		}
		hookMu.Unlock()
		if isNew && notify != nil {
			notify(winctl.Handle(hwnd))
		}
		return 0
	})
)

func isVisible(h winctl.Handle) bool {
	return windows.IsWindowVisible(windows.HWND(h))
}

type loopReady struct {
	threadID uint32
	err      error
}

// Watcher reports newly shown top-level windows from a WinEvent hook.
// Only one Watcher may run per process.
type Watcher struct {
	mu       sync.Mutex
	threadID uint32
	doneCh   chan struct{}
}

// NewWatcher creates an idle watcher.
func NewWatcher() *Watcher {
	return &Watcher{}
}

// Start installs the hook. onShown runs on the hook thread for each window
// the first time it becomes visible and must not block.
func (w *Watcher) Start(onShown func(winctl.Handle)) error {
	if onShown == nil {
		return errors.New("onShown callback is required")
	}
	if err := user32.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.doneCh != nil {
		return errors.New("window event watcher already started")
	}

	hookMu.Lock()
	if hookTracker != nil {
		hookMu.Unlock()
		return errors.New("another window event watcher is running")
	}
	hookTracker = newTracker()
	hookNotify = onShown
	hookMu.Unlock()

	readyCh := make(chan loopReady, 1)
	doneCh := make(chan struct{})
	go runHookLoop(readyCh, doneCh)

	ready := <-readyCh
	if ready.err != nil {
		clearHookState()
		return ready.err
	}
	w.threadID = ready.threadID
	w.doneCh = doneCh
	return nil
}

// Stop removes the hook and waits for its loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.doneCh == nil {
		return nil
	}
	doneCh, threadID := w.doneCh, w.threadID
	w.doneCh, w.threadID = nil, 0

	ret, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	var stopErr error
	if ret == 0 {
		stopErr = fmt.Errorf("PostThreadMessageW: %w", err)
	}

	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()
	select {
	case <-doneCh:
	case <-timer.C:
		slog.Warn("[winevent] DEBUG hook loop stop timed out, goroutine/thread may leak", "threadID", threadID)
		stopErr = errors.Join(stopErr, fmt.Errorf("window event loop stop timed out (threadID=%d)", threadID))
	}
	clearHookState()
	return stopErr
}

func clearHookState() {
	hookMu.Lock()
	hookTracker = nil
	hookNotify = nil
	hookMu.Unlock()
}

func runHookLoop(readyCh chan<- loopReady, doneCh chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	threadID := windows.GetCurrentThreadId()

	var qmsg winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&qmsg)), 0, 0, 0, pmNoRemove)

	hook, _, err := procSetWinEventHook.Call(
		uintptr(eventObjectDestroy),
		uintptr(eventObjectShow),
		0,
		hookCallback,
		0,
		0,
		wineventOutOfContext|wineventSkipOwnProcess,
	)
	if hook == 0 {
		if err == syscall.Errno(0) {
			err = errors.New("SetWinEventHook failed")
		}
		readyCh <- loopReady{err: fmt.Errorf("install window event hook: %w", err)}
		return
	}
	defer func() {
		if ok, _, err := procUnhookWinEvent.Call(hook); ok == 0 {
			slog.Error("[winevent] DEBUG UnhookWinEvent failed", "error", err)
		}
	}()

	readyCh <- loopReady{threadID: threadID}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			slog.Warn("[winevent] DEBUG GetMessageW returned error, exiting loop", "error", lastErr)
			return
		case 0:
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}
