package configwatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const testDelay = 80 * time.Millisecond

type changeRecorder struct {
	mu      sync.Mutex
	changes [][]byte
	notify  chan struct{}
}

func newChangeRecorder() *changeRecorder {
	return &changeRecorder{notify: make(chan struct{}, 16)}
}

func (r *changeRecorder) onChange(raw []byte) {
	r.mu.Lock()
	r.changes = append(r.changes, append([]byte(nil), raw...))
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *changeRecorder) snapshot() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.changes...)
}

func startWatcher(t *testing.T, path string, rec *changeRecorder) *Watcher {
	t.Helper()
	w, err := New(path, testDelay, rec.onChange)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		w.Close()
		<-done
	})
	return w
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewRequiresCallback(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "config.yaml"), 0, nil); err == nil {
		t.Fatal("New() expected error for nil callback")
	}
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.yaml")
	if _, err := New(path, 0, func([]byte) {}); err == nil {
		t.Fatal("New() expected error for missing directory")
	}
}

func TestWatcherReportsExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "a: 1\n")
	rec := newChangeRecorder()
	startWatcher(t, path, rec)

	writeFile(t, path, "a: 2\n")

	select {
	case <-rec.notify:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	got := rec.snapshot()
	if len(got) != 1 || string(got[0]) != "a: 2\n" {
		t.Fatalf("changes = %q", got)
	}
}

func TestWatcherReportsReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "a: 1\n")
	rec := newChangeRecorder()
	startWatcher(t, path, rec)

	tmp := filepath.Join(dir, ".config.yaml.tmp.1")
	writeFile(t, tmp, "a: 3\n")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	select {
	case <-rec.notify:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	if got := rec.snapshot(); string(got[len(got)-1]) != "a: 3\n" {
		t.Fatalf("changes = %q", got)
	}
}

func TestWatcherIgnoresAcknowledgedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "a: 1\n")
	rec := newChangeRecorder()
	w := startWatcher(t, path, rec)

	writeFile(t, path, "a: 2\n")
	w.Acknowledge()

	select {
	case <-rec.notify:
		t.Fatalf("unexpected change for acknowledged write: %q", rec.snapshot())
	case <-time.After(5 * testDelay):
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "a: 1\n")
	rec := newChangeRecorder()
	startWatcher(t, path, rec)

	writeFile(t, filepath.Join(dir, "other.yaml"), "b: 1\n")

	select {
	case <-rec.notify:
		t.Fatalf("unexpected change for sibling file: %q", rec.snapshot())
	case <-time.After(5 * testDelay):
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "a: 0\n")
	rec := newChangeRecorder()
	startWatcher(t, path, rec)

	for _, content := range []string{"a: 1\n", "a: 2\n", "a: 3\n"} {
		writeFile(t, path, content)
	}

	select {
	case <-rec.notify:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	time.Sleep(5 * testDelay)
	got := rec.snapshot()
	if len(got) != 1 || string(got[0]) != "a: 3\n" {
		t.Fatalf("changes = %q, want a single final change", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	w, err := New(path, testDelay, func(raw []byte) {
		t.Errorf("change reported after Close: %q", raw)
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	// A check after Close must not report.
	writeFile(t, path, "late\n")
	w.check()
}
