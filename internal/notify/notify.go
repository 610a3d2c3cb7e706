// Package notify shows user-facing messages: toast notifications on Windows,
// log lines elsewhere. Identical messages repeated within a short window are
// shown once.
package notify

import (
	"sync"
	"time"
)

// AppID identifies the application in the Windows notification center.
const AppID = "WindowResizer"

// DefaultRepeatWindow suppresses identical messages shown within it.
const DefaultRepeatWindow = 3 * time.Second

type repeatFilter struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   map[string]time.Time
}

func newRepeatFilter(window time.Duration) *repeatFilter {
	return &repeatFilter{window: window, now: time.Now, last: map[string]time.Time{}}
}

// allow reports whether title/message should be shown now and records it.
func (f *repeatFilter) allow(title string, message string) bool {
	if f.window <= 0 {
		return true
	}
	key := title + "\x00" + message
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()
	if at, ok := f.last[key]; ok && now.Sub(at) < f.window {
		return false
	}
	f.last[key] = now
	for k, at := range f.last {
		if now.Sub(at) >= f.window {
			delete(f.last, k)
		}
	}
	return true
}
