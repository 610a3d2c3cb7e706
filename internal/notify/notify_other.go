//go:build !windows

package notify

import (
	"log/slog"
	"time"
)

// Notifier writes notifications to the log.
type Notifier struct {
	filter *repeatFilter
}

// New returns a log-backed notifier.
func New(repeatWindow time.Duration) *Notifier {
	return &Notifier{filter: newRepeatFilter(repeatWindow)}
}

// Notify logs the message at info level.
func (n *Notifier) Notify(title string, message string) error {
	if !n.filter.allow(title, message) {
		return nil
	}
	slog.Info("[notify] "+title, "message", message)
	return nil
}
