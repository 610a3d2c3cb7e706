//go:build windows

package notify

import (
	"errors"
	"testing"

	"git.sr.ht/~jackmordaunt/go-toast/v2"
)

func TestNotifierPushesToast(t *testing.T) {
	var pushed []toast.Notification
	n := New(DefaultRepeatWindow)
	n.push = func(msg *toast.Notification) error {
		pushed = append(pushed, *msg)
		return nil
	}

	if err := n.Notify("WindowResizer", "saved"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if err := n.Notify("WindowResizer", "saved"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(pushed) != 1 {
		t.Fatalf("pushed %d toasts, want 1", len(pushed))
	}
	if pushed[0].AppID != AppID || pushed[0].Title != "WindowResizer" || pushed[0].Body != "saved" {
		t.Fatalf("toast = %+v", pushed[0])
	}
}

func TestNotifierReturnsPushError(t *testing.T) {
	n := New(0)
	n.push = func(*toast.Notification) error { return errors.New("no notification center") }
	if err := n.Notify("t", "m"); err == nil {
		t.Fatal("Notify() expected error")
	}
}
