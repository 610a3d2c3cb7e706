//go:build !windows

package notify

import (
	"log/slog"
	"strings"
	"testing"

	"windowresizer/internal/testutil"
)

func TestNotifierLogs(t *testing.T) {
	logBuf := testutil.CaptureLogBuffer(t, slog.LevelInfo)
	n := New(DefaultRepeatWindow)

	if err := n.Notify("WindowResizer", "hotkey Ctrl+Alt+S is in use"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if err := n.Notify("WindowResizer", "hotkey Ctrl+Alt+S is in use"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if got := strings.Count(logBuf.String(), "hotkey Ctrl+Alt+S is in use"); got != 1 {
		t.Fatalf("logged %d times, want 1: %s", got, logBuf.String())
	}
}
