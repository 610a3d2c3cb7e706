//go:build !windows && !unix

package procutil

import "os/exec"

// HideWindow is a no-op on this platform.
func HideWindow(_ *exec.Cmd) {}

// Detach is a no-op on this platform.
func Detach(_ *exec.Cmd) {}
