//go:build windows

package winctl

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"windowresizer/internal/windowsize"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procGetParent            = user32.NewProc("GetParent")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetWindowRect        = user32.NewProc("GetWindowRect")
	procIsZoomed             = user32.NewProc("IsZoomed")
	procIsIconic             = user32.NewProc("IsIconic")
	procShowWindow           = user32.NewProc("ShowWindow")
	procSetWindowPos         = user32.NewProc("SetWindowPos")
	procGetSystemMetrics     = user32.NewProc("GetSystemMetrics")
)

const (
	swShowNormal = 1
	swMaximize   = 3

	swpNoZOrder      = 0x0004
	swpNoOwnerZOrder = 0x0200

	smCxScreen = 0
	smCyScreen = 1
)

// win32Rect mirrors the Win32 RECT struct.
type win32Rect struct {
	left, top, right, bottom int32
}

// EnumWindows and EnumChildWindows callbacks are allocated once; each
// enumeration holds its mutex and collects into the package-level slice.
var (
	enumMu       sync.Mutex
	enumHandles  []windows.HWND
	enumCallback = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		enumHandles = append(enumHandles, hwnd)
		return 1
	})
)

// Desktop is the native window control implementation.
type Desktop struct{}

// New returns the native window control.
func New() *Desktop {
	return &Desktop{}
}

func collect(enum func()) []windows.HWND {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumHandles = nil
	enum()
	out := enumHandles
	enumHandles = nil
	return out
}

// OpenWindows lists visible, titled top-level windows in enumeration
// (z-)order. The shell desktop window is excluded.
func (d *Desktop) OpenWindows() ([]Handle, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	var enumErr error
	all := collect(func() {
		enumErr = windows.EnumWindows(enumCallback, nil)
	})
	if enumErr != nil {
		return nil, fmt.Errorf("EnumWindows: %w", enumErr)
	}

	shell := windows.GetShellWindow()
	handles := make([]Handle, 0, len(all))
	for _, hwnd := range all {
		if hwnd == shell || !windows.IsWindowVisible(hwnd) {
			continue
		}
		if titleLength(hwnd) == 0 {
			continue
		}
		handles = append(handles, Handle(hwnd))
	}
	return handles, nil
}

// ForegroundWindow returns the window that currently has focus.
func (d *Desktop) ForegroundWindow() (Handle, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return 0, ErrNoWindow
	}
	return Handle(hwnd), nil
}

// IsChildWindow reports whether h has a parent or owner window.
func (d *Desktop) IsChildWindow(h Handle) bool {
	parent, _, _ := procGetParent.Call(uintptr(h))
	return parent != 0
}

// IsVisible reports whether h has the WS_VISIBLE style.
func (d *Desktop) IsVisible(h Handle) bool {
	return windows.IsWindowVisible(windows.HWND(h))
}

// WindowTitle returns the window caption; ok is false for untitled windows.
func (d *Desktop) WindowTitle(h Handle) (string, bool) {
	title := windowText(windows.HWND(h))
	return title, title != ""
}

// WindowRect returns the window rectangle in screen coordinates.
func (d *Desktop) WindowRect(h Handle) (windowsize.Rect, error) {
	if h == 0 {
		return windowsize.Rect{}, ErrNoWindow
	}
	var r win32Rect
	ok, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return windowsize.Rect{}, fmt.Errorf("GetWindowRect %s: %w", h, callErr(err))
	}
	return windowsize.Rect{Left: r.left, Top: r.top, Right: r.right, Bottom: r.bottom}, nil
}

// WindowState reports whether the window is minimized, maximized or normal.
func (d *Desktop) WindowState(h Handle) (windowsize.State, error) {
	if h == 0 {
		return windowsize.StateNormal, ErrNoWindow
	}
	if iconic, _, _ := procIsIconic.Call(uintptr(h)); iconic != 0 {
		return windowsize.StateMinimized, nil
	}
	if zoomed, _, _ := procIsZoomed.Call(uintptr(h)); zoomed != 0 {
		return windowsize.StateMaximized, nil
	}
	return windowsize.StateNormal, nil
}

// MoveWindow restores h to the normal show state and places it at rect
// without changing its z-order.
func (d *Desktop) MoveWindow(h Handle, rect windowsize.Rect) error {
	if h == 0 {
		return ErrNoWindow
	}
	// ShowWindow returns the previous visibility, not an error.
	procShowWindow.Call(uintptr(h), swShowNormal)
	ok, _, err := procSetWindowPos.Call(
		uintptr(h),
		0,
		uintptr(rect.Left),
		uintptr(rect.Top),
		uintptr(rect.Width()),
		uintptr(rect.Height()),
		swpNoZOrder|swpNoOwnerZOrder,
	)
	if ok == 0 {
		return fmt.Errorf("SetWindowPos %s: %w", h, callErr(err))
	}
	return nil
}

// MaximizeWindow shows h maximized.
func (d *Desktop) MaximizeWindow(h Handle) error {
	if h == 0 {
		return ErrNoWindow
	}
	procShowWindow.Call(uintptr(h), swMaximize)
	return nil
}

// ResolveProcess returns the module name of the process that really owns h.
// Windows hosted by ApplicationFrameHost.exe are resolved through their
// child windows to the hosted application.
func (d *Desktop) ResolveProcess(h Handle) (ProcessInfo, error) {
	if h == 0 {
		return ProcessInfo{}, ErrNoWindow
	}
	module, err := resolveModule(windows.HWND(h), 0)
	if err != nil {
		return ProcessInfo{}, err
	}
	return ProcessInfo{
		ModuleName:  module,
		WindowTitle: windowText(windows.HWND(h)),
	}, nil
}

// IsForegroundFullScreen reports whether the foreground window covers the
// whole primary screen. The shell desktop window never counts.
func (d *Desktop) IsForegroundFullScreen() (bool, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 || hwnd == windows.GetShellWindow() {
		return false, nil
	}
	rect, err := d.WindowRect(Handle(hwnd))
	if err != nil {
		return false, err
	}
	width, _, _ := procGetSystemMetrics.Call(smCxScreen)
	height, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if width == 0 || height == 0 {
		return false, errors.New("GetSystemMetrics returned an empty primary screen")
	}
	return int64(rect.Width()) == int64(int32(width)) && int64(rect.Height()) == int64(int32(height)), nil
}

func resolveModule(hwnd windows.HWND, depth int) (string, error) {
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid == 0 {
		return "", fmt.Errorf("window 0x%X: %w", uintptr(hwnd), ErrProcessNotFound)
	}
	module, err := processModuleName(pid)
	if err != nil {
		return "", err
	}
	if !isFrameHost(module) {
		return module, nil
	}
	if depth >= maxFrameHostDepth {
		return "", fmt.Errorf("frame host nesting too deep at 0x%X: %w", uintptr(hwnd), ErrProcessNotFound)
	}

	children := collect(func() {
		windows.EnumChildWindows(hwnd, enumCallback, nil)
	})
	for _, child := range children {
		var childPID uint32
		if _, err := windows.GetWindowThreadProcessId(child, &childPID); err != nil || childPID == 0 || childPID == pid {
			continue
		}
		hosted, err := resolveModule(child, depth+1)
		if err != nil {
			slog.Debug("[DEBUG-WINCTL] hosted window resolution failed",
				"frame", fmt.Sprintf("0x%X", uintptr(hwnd)), "child", fmt.Sprintf("0x%X", uintptr(child)), "error", err)
			continue
		}
		return hosted, nil
	}
	return "", fmt.Errorf("no hosted process under frame 0x%X: %w", uintptr(hwnd), ErrProcessNotFound)
}

func processModuleName(pid uint32) (string, error) {
	proc, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", fmt.Errorf("open process %d: %w: %w", pid, ErrProcessNotFound, err)
	}
	defer windows.CloseHandle(proc)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(proc, 0, &buf[0], &size); err != nil {
		return "", fmt.Errorf("query image name of process %d: %w: %w", pid, ErrProcessNotFound, err)
	}
	name := moduleBaseName(windows.UTF16ToString(buf[:size]))
	if name == "" {
		return "", fmt.Errorf("process %d has no image name: %w", pid, ErrProcessNotFound)
	}
	return name, nil
}

func titleLength(hwnd windows.HWND) int {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	return int(n)
}

func windowText(hwnd windows.HWND) string {
	n := titleLength(hwnd)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	copied, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:copied])
}

func callErr(err error) error {
	if err == nil || err == syscall.Errno(0) {
		return errors.New("call failed")
	}
	return err
}
