//go:build !windows

package ipc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"windowresizer/internal/userutil"
)

// socketPath maps a pipe name to a Unix socket in the temp directory.
func socketPath(pipeName string) string {
	base := pipeName
	if i := strings.LastIndex(base, `\`); i >= 0 {
		base = base[i+1:]
	}
	return filepath.Join(os.TempDir(), userutil.SanitizeUsername(base)+".sock")
}

func listen(pipeName string) (net.Listener, error) {
	path := socketPath(pipeName)
	listener, err := net.Listen("unix", path)
	if err == nil {
		return listener, nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, err
	}
	// A socket file without a listener is left over from a crashed engine.
	probe, dialErr := net.DialTimeout("unix", path, 200*time.Millisecond)
	if dialErr == nil {
		probe.Close()
		return nil, fmt.Errorf("%s is in use: %w", path, err)
	}
	slog.Debug("[ipc] removing stale socket", "path", path)
	if removeErr := os.Remove(path); removeErr != nil {
		return nil, fmt.Errorf("remove stale socket: %w", removeErr)
	}
	return net.Listen("unix", path)
}

func dial(ctx context.Context, pipeName string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", socketPath(pipeName))
}
