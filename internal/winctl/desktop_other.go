//go:build !windows

package winctl

import "windowresizer/internal/windowsize"

// Desktop is a stub on platforms without Win32; every call fails with
// ErrUnsupported.
type Desktop struct{}

// New returns the stub window control.
func New() *Desktop {
	return &Desktop{}
}

func (d *Desktop) OpenWindows() ([]Handle, error) { return nil, ErrUnsupported }

func (d *Desktop) ForegroundWindow() (Handle, error) { return 0, ErrUnsupported }

func (d *Desktop) IsChildWindow(Handle) bool { return false }

func (d *Desktop) IsVisible(Handle) bool { return false }

func (d *Desktop) WindowTitle(Handle) (string, bool) { return "", false }

func (d *Desktop) WindowRect(Handle) (windowsize.Rect, error) {
	return windowsize.Rect{}, ErrUnsupported
}

func (d *Desktop) WindowState(Handle) (windowsize.State, error) {
	return windowsize.StateNormal, ErrUnsupported
}

func (d *Desktop) MoveWindow(Handle, windowsize.Rect) error { return ErrUnsupported }

func (d *Desktop) MaximizeWindow(Handle) error { return ErrUnsupported }

func (d *Desktop) ResolveProcess(Handle) (ProcessInfo, error) {
	return ProcessInfo{}, ErrUnsupported
}

func (d *Desktop) IsForegroundFullScreen() (bool, error) { return false, ErrUnsupported }
