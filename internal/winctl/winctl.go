// Package winctl wraps the Win32 window primitives the session controller
// needs: enumeration, foreground lookup, geometry, placement and owning
// process resolution.
package winctl

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupported is returned on platforms without a native implementation.
	ErrUnsupported = errors.New("window control is not supported on this platform")
	// ErrProcessNotFound is returned when a window's owning process cannot be
	// resolved, typically because it exited or access was denied.
	ErrProcessNotFound = errors.New("owning process not found")
	// ErrNoWindow is returned for a zero handle.
	ErrNoWindow = errors.New("no window")
)

// Handle is an opaque top-level window handle (HWND).
type Handle uintptr

func (h Handle) String() string {
	return fmt.Sprintf("0x%X", uintptr(h))
}

// ProcessInfo identifies the application that really owns a window.
type ProcessInfo struct {
	// ModuleName is the executable file name, for example "notepad.exe".
	ModuleName string
	// WindowTitle is the caption of the window itself, which is the title
	// used for pattern matching. It is not the process's main window title.
	WindowTitle string
}

// frameHostModule hosts UWP application windows; the real owner is found
// among its child windows.
const frameHostModule = "ApplicationFrameHost.exe"

// maxFrameHostDepth bounds the child-window indirection walk.
const maxFrameHostDepth = 4

func isFrameHost(module string) bool {
	return strings.EqualFold(module, frameHostModule)
}

// moduleBaseName returns the file name part of a full image path.
func moduleBaseName(imagePath string) string {
	imagePath = strings.TrimSpace(imagePath)
	if i := strings.LastIndexAny(imagePath, `\/`); i >= 0 {
		return imagePath[i+1:]
	}
	return imagePath
}
