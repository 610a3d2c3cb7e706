//go:build unix

package procutil

import (
	"os/exec"
	"syscall"
)

// HideWindow is a no-op outside Windows.
func HideWindow(_ *exec.Cmd) {}

// Detach starts cmd in a new session so terminal hangups do not reach it.
func Detach(cmd *exec.Cmd) {
	if cmd == nil {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
}
