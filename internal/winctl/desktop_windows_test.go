//go:build windows

package winctl

import (
	"errors"
	"testing"

	"golang.org/x/sys/windows"

	"windowresizer/internal/windowsize"
)

func TestDesktopRejectsZeroHandle(t *testing.T) {
	d := New()
	if err := d.MoveWindow(0, windowsize.Rect{Right: 10, Bottom: 10}); !errors.Is(err, ErrNoWindow) {
		t.Fatalf("MoveWindow(0) error = %v, want ErrNoWindow", err)
	}
	if err := d.MaximizeWindow(0); !errors.Is(err, ErrNoWindow) {
		t.Fatalf("MaximizeWindow(0) error = %v, want ErrNoWindow", err)
	}
	if _, err := d.ResolveProcess(0); !errors.Is(err, ErrNoWindow) {
		t.Fatalf("ResolveProcess(0) error = %v, want ErrNoWindow", err)
	}
	if _, err := d.WindowRect(0); !errors.Is(err, ErrNoWindow) {
		t.Fatalf("WindowRect(0) error = %v, want ErrNoWindow", err)
	}
}

func TestOpenWindowsExcludesShellWindow(t *testing.T) {
	d := New()
	handles, err := d.OpenWindows()
	if err != nil {
		t.Fatalf("OpenWindows() error = %v", err)
	}
	shell := Handle(windows.GetShellWindow())
	for _, h := range handles {
		if h == 0 || (shell != 0 && h == shell) {
			t.Fatalf("OpenWindows() returned %s", h)
		}
	}
}
