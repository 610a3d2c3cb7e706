// Package winevent reports top-level windows as they appear on screen.
package winevent

import (
	"errors"

	"windowresizer/internal/winctl"
)

// ErrUnsupported is returned by Start on platforms without WinEvent hooks.
var ErrUnsupported = errors.New("window events are not supported on this platform")

const (
	eventObjectDestroy uint32 = 0x8001
	eventObjectShow    uint32 = 0x8002

	objidWindow int32 = 0
	childidSelf int32 = 0
)

// tracker reports each window once per lifetime: the first show event
// of a handle is new, later ones are not until the handle is destroyed.
type tracker struct {
	seen map[winctl.Handle]struct{}
}

func newTracker() *tracker {
	return &tracker{seen: make(map[winctl.Handle]struct{})}
}

// observe applies one event and reports whether h just appeared.
func (t *tracker) observe(event uint32, h winctl.Handle, idObject, idChild int32, visible func(winctl.Handle) bool) bool {
	if h == 0 || idObject != objidWindow || idChild != childidSelf {
		return false
	}
	switch event {
	case eventObjectDestroy:
		delete(t.seen, h)
		return false
	case eventObjectShow:
		if _, ok := t.seen[h]; ok {
			return false
		}
		if visible != nil && !visible(h) {
			return false
		}
		t.seen[h] = struct{}{}
		return true
	default:
		return false
	}
}

func (t *tracker) len() int { return len(t.seen) }
