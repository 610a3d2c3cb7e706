package sessionlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	// DirName is the journal directory created next to the config document.
	DirName = "session-logs"

	defaultMaxFiles   = 30
	defaultMaxEntries = 1000

	filePrefix = "session-"
	fileSuffix = ".jsonl"
)

// Record is the serialized form of an Entry.
type Record struct {
	Seq       uint64 `json:"seq" yaml:"seq"`
	Timestamp string `json:"ts" yaml:"ts"` // "20060102150405" format
	Level     string `json:"level" yaml:"level"`
	Message   string `json:"msg" yaml:"msg"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	TriggerID string `json:"trigger_id,omitempty" yaml:"trigger_id,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Options tune a Journal. Zero values select defaults.
type Options struct {
	MaxFiles   int
	MaxEntries int
}

// Journal stores teed entries in a ring buffer and, once opened, appends
// them to a per-run JSONL file. Safe for concurrent use.
type Journal struct {
	mu       sync.RWMutex
	seq      uint64
	ring     ringBuffer
	file     *os.File
	path     string
	maxFiles int
}

// NewJournal creates a journal with only the in-memory history.
func NewJournal(opts Options) *Journal {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = defaultMaxFiles
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxEntries
	}
	return &Journal{
		ring:     newRingBuffer(opts.MaxEntries),
		maxFiles: opts.MaxFiles,
	}
}

// Open creates this run's JSONL file in dir and prunes the oldest files
// beyond the configured limit. Failures leave the in-memory history working.
func (j *Journal) Open(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session log directory: %w", err)
	}
	// PID keeps sub-second restarts from colliding.
	name := fmt.Sprintf("%s%s-%d%s", filePrefix, time.Now().Format("20060102-150405"), os.Getpid(), fileSuffix)
	fullPath := filepath.Join(dir, name)
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open session log file: %w", err)
	}

	j.mu.Lock()
	prev := j.file
	j.file = f
	j.path = fullPath
	j.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	j.prune(dir, name)
	slog.Info("[session-log] initialized", "path", fullPath)
	return nil
}

// prune removes the oldest journal files beyond maxFiles, never the active one.
func (j *Journal) prune(dir string, active string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("[session-log] failed to read log directory for cleanup", "dir", dir, "error", err)
		return
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			files = append(files, name)
		}
	}
	// Lexicographic order follows the timestamp prefix.
	sort.Strings(files)

	excess := len(files) - j.maxFiles
	for _, name := range files {
		if excess <= 0 {
			break
		}
		if name == active {
			continue
		}
		target := filepath.Join(dir, name)
		if err := os.Remove(target); err != nil {
			slog.Warn("[session-log] failed to delete old log file", "path", target, "error", err)
			continue
		}
		excess--
	}
}

// Append records e. It is the TeeHandler callback and must not log through
// slog while holding the lock; internal failures go to stderr.
func (j *Journal) Append(e Entry) {
	rec := Record{
		Timestamp: e.Time.Format("20060102150405"),
		Level:     strings.ToLower(e.Level.String()),
		Message:   e.Message,
		Source:    e.Group,
		TriggerID: e.Attrs["trigger_id"],
		Error:     e.Attrs["error"],
	}

	var writeErr error
	var syncFile *os.File

	j.mu.Lock()
	j.seq++
	rec.Seq = j.seq
	if j.file != nil {
		raw, err := json.Marshal(rec)
		if err != nil {
			writeErr = err
		} else if _, err := j.file.Write(append(raw, '\n')); err != nil {
			writeErr = err
		} else if e.Level >= slog.LevelError {
			syncFile = j.file
		}
	}
	j.ring.push(rec)
	j.mu.Unlock()

	if syncFile != nil {
		if err := syncFile.Sync(); err != nil && !isCloseRace(err) {
			fmt.Fprintf(os.Stderr, "[session-log] failed to sync log file: %v\n", err)
		}
	}
	if writeErr != nil {
		fmt.Fprintf(os.Stderr, "[session-log] failed to write log entry: %v\n", writeErr)
	}
}

// isCloseRace reports errors from a Sync that raced with Close.
func isCloseRace(err error) bool {
	return errors.Is(err, os.ErrClosed) ||
		(runtime.GOOS == "windows" && errors.Is(err, syscall.EINVAL))
}

// Snapshot returns the retained records, oldest first.
func (j *Journal) Snapshot() []Record {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.ring.snapshot()
}

// Path returns the active JSONL file, or "" before Open.
func (j *Journal) Path() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.path
}

// Close closes the JSONL file. The in-memory history stays readable.
func (j *Journal) Close() error {
	j.mu.Lock()
	f := j.file
	j.file = nil
	j.mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

// ringBuffer is a fixed-capacity circular buffer that overwrites the oldest
// record when full. Not safe for concurrent use; Journal holds its lock.
type ringBuffer struct {
	buf   []Record
	head  int // index of the oldest record
	count int
}

func newRingBuffer(capacity int) ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return ringBuffer{buf: make([]Record, capacity)}
}

func (rb *ringBuffer) push(rec Record) {
	bufCap := len(rb.buf)
	if rb.count < bufCap {
		rb.buf[(rb.head+rb.count)%bufCap] = rec
		rb.count++
		return
	}
	rb.buf[rb.head] = rec
	rb.head = (rb.head + 1) % bufCap
}

func (rb *ringBuffer) snapshot() []Record {
	out := make([]Record, rb.count)
	first := min(len(rb.buf)-rb.head, rb.count)
	copy(out, rb.buf[rb.head:rb.head+first])
	if rest := rb.count - first; rest > 0 {
		copy(out[first:], rb.buf[:rest])
	}
	return out
}
