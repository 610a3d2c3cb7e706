// Package configwatch reports external edits of the config document.
//
// The parent directory is watched rather than the file because atomic saves
// replace the file by rename. Bursts of events are coalesced, and content
// identical to the last acknowledged write is ignored, so the running
// instance does not reload its own saves.
package configwatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the quiet period after the last event before the document
// is re-read.
const DefaultDelay = 300 * time.Millisecond

const maxDocumentBytes int64 = 1 << 20

// Watcher watches one document path.
type Watcher struct {
	path     string
	onChange func(raw []byte)
	fs       *fsnotify.Watcher
	debounce func(func())

	mu     sync.Mutex
	last   []byte
	closed bool
}

// New starts watching the directory of path. onChange receives the new
// document content; it runs on a timer goroutine and must not block long.
func New(path string, delay time.Duration, onChange func(raw []byte)) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("configwatch: onChange is required")
	}
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("configwatch: resolve path: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("configwatch: %w", err)
	}
	dir := filepath.Dir(absolutePath)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("configwatch: watch %s: %w", dir, err)
	}

	w := &Watcher{
		path:     absolutePath,
		onChange: onChange,
		fs:       fsw,
		debounce: debounce.New(delay),
	}
	w.Acknowledge()
	return w, nil
}

// Path returns the watched document path.
func (w *Watcher) Path() string { return w.path }

// Acknowledge records the current document content as known. Call it after
// every write made by this process.
func (w *Watcher) Acknowledge() {
	raw, err := readDocument(w.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("[configwatch] DEBUG acknowledge read failed", "path", w.path, "error", err)
	}
	w.mu.Lock()
	w.last = raw
	w.mu.Unlock()
}

// Run delivers events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	slog.Debug("[configwatch] DEBUG watching", "path", w.path)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("[configwatch] watcher error", "path", w.path, "error", err)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !samePath(event.Name, w.path) {
		return
	}
	w.debounce(w.check)
}

// check re-reads the document and reports it when the content changed.
func (w *Watcher) check() {
	raw, err := readDocument(w.path)
	if err != nil {
		// Transient during replace-by-rename; the Create event retriggers.
		slog.Debug("[configwatch] DEBUG read failed", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	if w.closed || bytes.Equal(raw, w.last) {
		w.mu.Unlock()
		return
	}
	w.last = raw
	w.mu.Unlock()

	slog.Info("[configwatch] config changed on disk", "path", w.path, "bytes", len(raw))
	w.onChange(raw)
}

// Close stops the watcher. A pending debounced check becomes a no-op.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.fs.Close()
}

func samePath(a string, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func readDocument(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxDocumentBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxDocumentBytes)
	}
	return raw, nil
}
