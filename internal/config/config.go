package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"windowresizer/internal/hotkeys"
	"windowresizer/internal/windowsize"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry           = 10
	// Windows file lock releases (antivirus/indexing) typically settle quickly.
	// Use a short linear backoff: baseDelay * (1..maxRenameRetry).
	renameRetryBaseDelay = 10 * time.Millisecond
)

// HotKeys is a hotkey as stored in the document: a modifier list plus a key.
type HotKeys struct {
	ModifierKeys []string `yaml:"modifier_keys" json:"modifier_keys"`
	Key          string   `yaml:"key" json:"key"`
}

// Binding parses h into a registrable binding.
func (h HotKeys) Binding() (hotkeys.Binding, error) {
	return hotkeys.FromParts(h.ModifierKeys, h.Key)
}

// Validate reports whether h has at least one modifier and a known key.
func (h HotKeys) Validate() error {
	_, err := h.Binding()
	return err
}

// String renders h as "Ctrl + Alt + S".
func (h HotKeys) String() string {
	parts := make([]string, 0, len(h.ModifierKeys)+1)
	for _, mod := range h.ModifierKeys {
		if trimmed := strings.TrimSpace(mod); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	parts = append(parts, strings.TrimSpace(h.Key))
	return strings.Join(parts, " + ")
}

func (h HotKeys) clone() HotKeys {
	h.ModifierKeys = cloneStringSlice(h.ModifierKeys)
	return h
}

// Config is the persisted document.
type Config struct {
	DisableInFullScreen bool                `yaml:"disable_in_full_screen" json:"disable_in_full_screen"`
	SaveKey             HotKeys             `yaml:"save_key" json:"save_key"`
	RestoreKey          HotKeys             `yaml:"restore_key" json:"restore_key"`
	RestoreAllKey       HotKeys             `yaml:"restore_all_key" json:"restore_all_key"`
	WindowSizes         []windowsize.Record `yaml:"window_sizes" json:"window_sizes"`
}

// DefaultConfig returns the document used when no usable file exists.
func DefaultConfig() Config {
	return Config{
		DisableInFullScreen: true,
		SaveKey:             HotKeys{ModifierKeys: []string{"Ctrl", "Alt"}, Key: "S"},
		RestoreKey:          HotKeys{ModifierKeys: []string{"Ctrl", "Alt"}, Key: "R"},
		RestoreAllKey:       HotKeys{ModifierKeys: []string{"Ctrl", "Alt"}, Key: "T"},
	}
}

// Bindings parses the three hotkeys and rejects two actions sharing one
// key combination.
func (c Config) Bindings() (save, restore, restoreAll hotkeys.Binding, err error) {
	named := []struct {
		name string
		keys HotKeys
		out  *hotkeys.Binding
	}{
		{name: "save_key", keys: c.SaveKey, out: &save},
		{name: "restore_key", keys: c.RestoreKey, out: &restore},
		{name: "restore_all_key", keys: c.RestoreAllKey, out: &restoreAll},
	}
	var errs []error
	for _, n := range named {
		b, parseErr := n.keys.Binding()
		if parseErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.name, parseErr))
			continue
		}
		*n.out = b
	}
	if len(errs) > 0 {
		return save, restore, restoreAll, errors.Join(errs...)
	}
	for i := range named {
		for j := i + 1; j < len(named); j++ {
			if named[i].out.Same(*named[j].out) {
				return save, restore, restoreAll, fmt.Errorf("%s and %s both use %s", named[i].name, named[j].name, named[i].out)
			}
		}
	}
	return save, restore, restoreAll, nil
}

// Validate checks the hotkeys of c.
func (c Config) Validate() error {
	_, _, _, err := c.Bindings()
	return err
}

// Load reads the document at path. A missing or empty file, or one without
// any window records, yields defaults with a nil error. A parse failure
// yields defaults together with the error.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultConfig(), errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}
	return Parse(raw, path)
}

// ErrNoRecords reports an empty document or one without window records.
// Such a document is a placeholder and never replaces a running state.
var ErrNoRecords = errors.New("config has no window records")

// Parse decodes a document read from source with the same rules as Load.
func Parse(raw []byte, source string) (Config, error) {
	cfg, err := Decode(raw, source)
	if errors.Is(err, ErrNoRecords) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Decode is Parse for an engine that already runs: a document without
// records yields defaults together with ErrNoRecords.
func Decode(raw []byte, source string) (Config, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return DefaultConfig(), fmt.Errorf("%s is empty: %w", source, ErrNoRecords)
	}
	if int64(len(raw)) > maxConfigFileBytes {
		return DefaultConfig(), fmt.Errorf("config file exceeds %d bytes", maxConfigFileBytes)
	}

	parsed := DefaultConfig()
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config, using defaults", "path", source, "error", err)
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", source, err)
	}
	if len(parsed.WindowSizes) == 0 {
		slog.Debug("[DEBUG-CONFIG] config has no window records, using defaults", "path", source)
		return DefaultConfig(), fmt.Errorf("%s: %w", source, ErrNoRecords)
	}

	parsed.WindowSizes = sanitizeRecords(parsed.WindowSizes)
	repairHotKeys(&parsed)
	return parsed, nil
}

// ReadFile reads and decodes the document at path like Decode. Unlike Load,
// a missing file is an error.
func ReadFile(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultConfig(), errors.New("config path required")
	}
	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		return DefaultConfig(), err
	}
	return Decode(raw, path)
}

// EnsureFile writes the default document if path is missing and returns the
// loaded document.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Clone returns a deep copy of src.
func Clone(src Config) Config {
	dst := src
	dst.SaveKey = src.SaveKey.clone()
	dst.RestoreKey = src.RestoreKey.clone()
	dst.RestoreAllKey = src.RestoreAllKey.clone()
	if src.WindowSizes != nil {
		dst.WindowSizes = make([]windowsize.Record, len(src.WindowSizes))
		copy(dst.WindowSizes, src.WindowSizes)
	}
	return dst
}

// Save validates cfg and atomically writes the whole document to path.
// Returns the normalized config that was actually written to disk.
func Save(path string, cfg Config) (Config, error) {
	normalizedPath, err := validateConfigPath(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("save config: %w", err)
	}
	cfg = Clone(cfg)
	cfg.WindowSizes = sanitizeRecords(cfg.WindowSizes)

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(normalizedPath, raw); err != nil {
		return cfg, err
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", normalizedPath, "records", len(cfg.WindowSizes))
	return cfg, nil
}

// sanitizeRecords drops records that can never match or be applied and
// returns the rest in store order.
func sanitizeRecords(records []windowsize.Record) []windowsize.Record {
	kept := make([]windowsize.Record, 0, len(records))
	for i, rec := range records {
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Name == "" {
			slog.Warn("[WARN-CONFIG] window record without process name skipped", "index", i, "title", rec.Title)
			continue
		}
		if !rec.Rect.Valid() {
			slog.Warn("[WARN-CONFIG] window record with invalid rect skipped",
				"index", i, "name", rec.Name, "title", rec.Title, "rect", rec.Rect.String())
			continue
		}
		kept = append(kept, rec)
	}
	return windowsize.NewStore(kept).Records()
}

// repairHotKeys resets unusable hotkeys to their defaults.
// MUTATES: cfg is directly modified.
func repairHotKeys(cfg *Config) {
	defaults := DefaultConfig()
	fields := []struct {
		name     string
		keys     *HotKeys
		fallback HotKeys
	}{
		{name: "save_key", keys: &cfg.SaveKey, fallback: defaults.SaveKey},
		{name: "restore_key", keys: &cfg.RestoreKey, fallback: defaults.RestoreKey},
		{name: "restore_all_key", keys: &cfg.RestoreAllKey, fallback: defaults.RestoreAllKey},
	}
	for _, f := range fields {
		if err := f.keys.Validate(); err != nil {
			slog.Warn("[WARN-CONFIG] invalid hotkey replaced with default",
				"field", f.name, "value", f.keys.String(), "default", f.fallback.String(), "error", err)
			*f.keys = f.fallback
		}
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("[WARN-CONFIG] conflicting hotkeys, using default bindings", "error", err)
		cfg.SaveKey = defaults.SaveKey
		cfg.RestoreKey = defaults.RestoreKey
		cfg.RestoreAllKey = defaults.RestoreAllKey
	}
}

func cloneStringSlice(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

// atomicWrite writes config data using temp-file + rename to avoid partial
// writes and retries rename on Windows to tolerate transient file locks.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[WARN-CONFIG] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[WARN-CONFIG] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
