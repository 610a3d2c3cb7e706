//go:build windows

package notify

import (
	"fmt"
	"log/slog"
	"time"

	"git.sr.ht/~jackmordaunt/go-toast/v2"
)

// Notifier pushes Windows toast notifications.
type Notifier struct {
	appID  string
	filter *repeatFilter
	push   func(n *toast.Notification) error
}

// New returns a toast notifier using AppID.
func New(repeatWindow time.Duration) *Notifier {
	return &Notifier{
		appID:  AppID,
		filter: newRepeatFilter(repeatWindow),
		push:   func(n *toast.Notification) error { return n.Push() },
	}
}

// Notify shows a toast. Push failures are returned and logged.
func (n *Notifier) Notify(title string, message string) error {
	if !n.filter.allow(title, message) {
		slog.Debug("[notify] DEBUG repeated notification suppressed", "title", title)
		return nil
	}
	toastMsg := &toast.Notification{
		AppID: n.appID,
		Title: title,
		Body:  message,
	}
	if err := n.push(toastMsg); err != nil {
		slog.Warn("[notify] toast failed", "title", title, "message", message, "error", err)
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}
