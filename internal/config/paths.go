package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// FileName is the document name in both the roaming and portable locations.
	FileName   = "config.yaml"
	appDirName = "WindowResizer"
)

// Test seams.
var (
	userHomeDirFn       = os.UserHomeDir
	executableFn        = os.Executable
	allowedConfigDirsFn = allowedConfigDirs
)

var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears path-resolution warnings
// accumulated during RoamingDir() calls.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	if len(defaultPathWarningState.messages) == 0 {
		return nil
	}
	out := make([]string, len(defaultPathWarningState.messages))
	copy(out, defaultPathWarningState.messages)
	defaultPathWarningState.messages = nil
	return out
}

// RoamingDir resolves the per-user directory, preferring APPDATA over
// LOCALAPPDATA, falling back to ~/.config when both are unset, and then to
// os.TempDir() if the home directory cannot be resolved.
func RoamingDir() string {
	base := strings.TrimSpace(os.Getenv("APPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
			recordDefaultPathWarning(
				"Config path fallback: failed to resolve APPDATA/LOCALAPPDATA/home directory. Using temp directory; saved window sizes may not persist.",
			)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDirName)
}

// RoamingPath is the document path inside RoamingDir.
func RoamingPath() string {
	return filepath.Join(RoamingDir(), FileName)
}

// PortablePath is the document path next to the executable.
func PortablePath() (string, error) {
	exe, err := executableFn()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), FileName), nil
}

// PortableMode reports whether no roaming document exists, in which case the
// document lives next to the executable.
func PortableMode() bool {
	_, err := os.Stat(RoamingPath())
	return errors.Is(err, os.ErrNotExist)
}

// DefaultPath returns the active document path: the roaming document when it
// exists, otherwise the portable one. When the executable cannot be resolved
// the roaming path is used.
func DefaultPath() string {
	if !PortableMode() {
		return RoamingPath()
	}
	portable, err := PortablePath()
	if err != nil {
		slog.Warn("[WARN-CONFIG] portable config path unavailable, using roaming path", "error", err)
		recordDefaultPathWarning("Portable config path unavailable; using the roaming config directory.")
		return RoamingPath()
	}
	return portable
}

// Move relocates the document to the portable (next to the executable) or
// roaming location and returns the new path. Moving to the current location
// is a no-op.
func Move(portable bool) (string, error) {
	roamingPath := RoamingPath()
	portablePath, err := PortablePath()
	if err != nil {
		return "", fmt.Errorf("move config: %w", err)
	}
	inPortable := PortableMode()

	source, target := portablePath, roamingPath
	if portable {
		source, target = roamingPath, portablePath
	}
	if portable == inPortable {
		return target, nil
	}

	if _, err := os.Stat(source); err != nil {
		return "", fmt.Errorf("move config: %w", err)
	}
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("move config: %q already exists", target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return "", fmt.Errorf("move config: mkdir: %w", err)
	}

	if err := renameFileWithRetry(source, target); err != nil {
		// Roaming and portable locations may sit on different volumes.
		slog.Debug("[DEBUG-CONFIG] rename failed, copying config instead", "source", source, "target", target, "error", err)
		if copyErr := copyThenRemove(source, target); copyErr != nil {
			return "", fmt.Errorf("move config: %w", copyErr)
		}
	}
	slog.Info("[config] config moved", "from", source, "to", target)
	return target, nil
}

func copyThenRemove(source string, target string) error {
	raw, err := readLimitedFile(source, maxConfigFileBytes)
	if err != nil {
		return err
	}
	if err := atomicWrite(target, raw); err != nil {
		return err
	}
	if err := os.Remove(source); err != nil {
		return fmt.Errorf("remove %q: %w", source, err)
	}
	return nil
}

// allowedConfigDirs lists the directories a document may be written to.
func allowedConfigDirs() ([]string, error) {
	dirs := []string{RoamingDir()}
	portable, err := PortablePath()
	if err != nil {
		return dirs, nil
	}
	return append(dirs, filepath.Dir(portable)), nil
}

// validateConfigPath normalizes path and enforces that config writes stay
// inside the roaming or portable directory.
func validateConfigPath(path string) (string, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return "", errors.New("config path required")
	}
	absolutePath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return "", fmt.Errorf("save config: resolve path: %w", err)
	}

	dirs, err := allowedConfigDirsFn()
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	for _, dir := range dirs {
		absoluteDir, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("save config: resolve config dir: %w", err)
		}
		if pathWithinDir(absolutePath, absoluteDir) {
			return absolutePath, nil
		}
	}
	return "", fmt.Errorf("save config: path outside config directory: %q", absolutePath)
}

// pathWithinDir blocks directory traversal by ensuring path is under dir.
// It also rejects Windows cross-drive escapes because filepath.Rel returns
// an absolute path when roots differ.
func pathWithinDir(path string, dir string) bool {
	relativePath, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(relativePath)
}
