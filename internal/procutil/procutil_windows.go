//go:build windows

package procutil

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// HideWindow configures cmd to suppress the console window flash on Windows.
// Preserves any existing SysProcAttr fields that were set before this call.
func HideWindow(cmd *exec.Cmd) {
	if cmd == nil {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
}

// Detach starts cmd without a console in its own process group, so closing
// the launching console does not end it. Implies HideWindow.
func Detach(cmd *exec.Cmd) {
	if cmd == nil {
		return
	}
	HideWindow(cmd)
	cmd.SysProcAttr.CreationFlags |= windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP
}
