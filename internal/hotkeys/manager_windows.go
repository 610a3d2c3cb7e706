//go:build windows

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32DLL = syscall.NewLazyDLL("user32.dll")
	kernelDLL = syscall.NewLazyDLL("kernel32.dll")

	procRegisterHotKey     = user32DLL.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32DLL.NewProc("UnregisterHotKey")
	procGetMessageW        = user32DLL.NewProc("GetMessageW")
	procTranslateMessage   = user32DLL.NewProc("TranslateMessage")
	procDispatchMessageW   = user32DLL.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32DLL.NewProc("PostThreadMessageW")
	procPeekMessageW       = user32DLL.NewProc("PeekMessageW")
	procGetCurrentThreadID = kernelDLL.NewProc("GetCurrentThreadId")
)

const (
	wmHotkey   = 0x0312
	wmQuit     = 0x0012
	pmNoRemove = 0x0000

	// modNoRepeat keeps a held combination from firing repeatedly.
	modNoRepeat = 0x4000

	// maxHotkeyID is the upper bound for application-defined hotkey IDs (Win32).
	maxHotkeyID int32 = 0xBFFF
)

var nextHotkeyID int32 = 0x4000

// activeLoop holds the state of a running registration loop.
// When non-nil in Manager, all fields are valid and the loop goroutine is running.
type activeLoop struct {
	threadID uint32
	doneCh   chan struct{}
	bindings []string
}

// point mirrors the Win32 POINT struct.
type point struct {
	x int32
	y int32
}

// winMsg mirrors the Win32 MSG struct (tagMSG from winuser.h).
// Field order and types must not be changed -- the layout must match
// the Win32 binary layout on both 32-bit and 64-bit Windows.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32 // reserved by Windows; required for correct struct size
}

type registration struct {
	id      int32
	binding Binding
}

type loopReady struct {
	threadID   uint32
	registered []Binding
	err        error // fatal: no loop is running
	regErr     error // per-binding failures joined; loop keeps running
}

// Manager owns the global hotkey registrations of the process. All
// bindings share one message loop thread.
type Manager struct {
	mu     sync.Mutex
	active *activeLoop // nil when nothing is registered
}

// NewManager creates a new hotkey manager.
func NewManager() *Manager {
	return &Manager{}
}

// Start registers bindings and calls onPress whenever one fires. Any
// previous registrations are released first.
//
// Bindings the OS refuses are reported as *RegisterError values joined with
// errors.Join; the others stay registered. When none could be registered no
// loop is kept running.
func (m *Manager) Start(bindings []Binding, onPress func(Binding)) error {
	if onPress == nil {
		return errors.New("onPress callback is required")
	}
	if len(bindings) == 0 {
		return errors.New("at least one hotkey binding is required")
	}

	// Pre-check DLL availability so that failures produce clean errors
	// instead of panics from LazyProc.Call.
	if err := user32DLL.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	if err := kernelDLL.Load(); err != nil {
		return fmt.Errorf("kernel32.dll is unavailable: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stopLocked(); err != nil {
		return err
	}

	regs := make([]registration, 0, len(bindings))
	for _, b := range bindings {
		if b.IsZero() {
			return errors.New("hotkey binding is not initialized")
		}
		id := atomic.AddInt32(&nextHotkeyID, 1)
		if id < 0 || id > maxHotkeyID {
			return fmt.Errorf("hotkey ID range exhausted (ID=%d)", id)
		}
		regs = append(regs, registration{id: id, binding: b})
	}

	readyCh := make(chan loopReady, 1)
	doneCh := make(chan struct{})

	go runHotkeyLoop(regs, onPress, readyCh, doneCh)

	ready := <-readyCh
	if ready.err != nil {
		return ready.err
	}
	if ready.threadID == 0 {
		return errors.New("hotkey loop started but returned invalid thread ID 0")
	}

	names := make([]string, 0, len(ready.registered))
	for _, b := range ready.registered {
		names = append(names, b.Normalized())
	}
	m.active = &activeLoop{
		threadID: ready.threadID,
		doneCh:   doneCh,
		bindings: names,
	}
	return ready.regErr
}

// Stop unregisters all active hotkeys.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

// ActiveBindings returns the normalized bindings currently registered.
func (m *Manager) ActiveBindings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	return append([]string(nil), m.active.bindings...)
}

func (m *Manager) stopLocked() error {
	if m.active == nil {
		return nil
	}

	al := m.active
	// Clear the active pointer first so that concurrent ActiveBindings() calls
	// see the manager as idle. The actual cleanup follows using the local copy.
	m.active = nil

	stopErr := postQuit(al.threadID)

	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()

	select {
	case <-al.doneCh:
		// Loop exited cleanly.
	case <-timer.C:
		timeoutErr := fmt.Errorf("hotkey message loop stop timed out (threadID=%d)", al.threadID)
		slog.Warn("[hotkey] DEBUG message loop stop timed out, goroutine/thread may leak",
			"threadID", al.threadID)
		stopErr = errors.Join(stopErr, timeoutErr)
	}

	return stopErr
}

func runHotkeyLoop(regs []registration, onPress func(Binding), readyCh chan<- loopReady, doneCh chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	threadID, err := getCurrentThreadID()
	if err != nil {
		readyCh <- loopReady{err: err}
		return
	}

	// PeekMessageW forces Windows to create the thread message queue so that
	// PostThreadMessageW in Stop() can deliver WM_QUIT. A zero return only
	// means the queue is empty.
	var qmsg winMsg
	ret, _, peekErr := procPeekMessageW.Call(
		uintptr(unsafe.Pointer(&qmsg)),
		0,
		0,
		0,
		pmNoRemove,
	)
	if ret == 0 && peekErr != syscall.Errno(0) {
		slog.Warn("[hotkey] DEBUG PeekMessageW for queue init returned error", "error", peekErr)
	}

	byID := make(map[int32]Binding, len(regs))
	var registered []Binding
	var regErrs []error
	for _, r := range regs {
		if err := registerHotKey(r.id, uint32(r.binding.Modifiers())|modNoRepeat, uint32(r.binding.Key())); err != nil {
			regErrs = append(regErrs, &RegisterError{Binding: r.binding.Normalized(), Err: err})
			continue
		}
		byID[r.id] = r.binding
		registered = append(registered, r.binding)
	}
	defer func() {
		for id := range byID {
			if err := unregisterHotKey(id); err != nil {
				slog.Error("[hotkey] DEBUG unregisterHotKey on loop exit failed (resource leak)",
					"error", err, "hotkeyID", id)
			}
		}
	}()

	if len(registered) == 0 {
		readyCh <- loopReady{err: errors.Join(regErrs...)}
		return
	}
	readyCh <- loopReady{threadID: threadID, registered: registered, regErr: errors.Join(regErrs...)}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(
			uintptr(unsafe.Pointer(&msg)),
			0,
			0,
			0,
		)
		switch int32(ret) {
		case -1:
			slog.Warn("[hotkey] DEBUG GetMessageW returned error, exiting loop", "error", lastErr)
			return
		case 0:
			// WM_QUIT received -- normal shutdown path.
			slog.Debug("[hotkey] DEBUG message loop received WM_QUIT, exiting normally")
			return
		}

		if msg.message == wmHotkey {
			if b, ok := byID[int32(msg.wParam)]; ok {
				go onPress(b)
			}
			continue
		}

		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

func registerHotKey(hotkeyID int32, modifiers uint32, key uint32) error {
	res, _, err := procRegisterHotKey.Call(
		0,
		uintptr(hotkeyID),
		uintptr(modifiers),
		uintptr(key),
	)
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("RegisterHotKey failed")
	}
	return err
}

func unregisterHotKey(hotkeyID int32) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(hotkeyID))
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("UnregisterHotKey failed")
	}
	return err
}

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return errors.New("cannot post WM_QUIT: threadID is 0")
	}
	res, _, err := procPostThreadMessageW.Call(
		uintptr(threadID),
		wmQuit,
		0,
		0,
	)
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("PostThreadMessageW failed")
	}
	return err
}

func getCurrentThreadID() (uint32, error) {
	tid, _, err := procGetCurrentThreadID.Call()
	if tid == 0 {
		return 0, fmt.Errorf("GetCurrentThreadId returned 0: %w", err)
	}
	return uint32(tid), nil
}
