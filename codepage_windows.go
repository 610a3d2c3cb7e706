//go:build windows

package main

import (
	"log/slog"

	"golang.org/x/sys/windows"
)

const codePageUTF8 = 65001

var (
	kernel32DLL     = windows.NewLazySystemDLL("kernel32.dll")
	setOutputCPProc = kernel32DLL.NewProc("SetConsoleOutputCP")
	setInputCPProc  = kernel32DLL.NewProc("SetConsoleCP")
)

// setConsoleUTF8 switches the attached console to UTF-8 so window titles
// printed by the CLI render correctly. Detached engines have no console and
// the calls fail harmlessly.
func setConsoleUTF8() {
	if err := kernel32DLL.Load(); err != nil {
		slog.Debug("[DEBUG-CONSOLE] kernel32.dll unavailable", "error", err)
		return
	}
	for _, proc := range []*windows.LazyProc{setOutputCPProc, setInputCPProc} {
		if r, _, err := proc.Call(codePageUTF8); r == 0 {
			slog.Debug("[DEBUG-CONSOLE] code page switch failed", "proc", proc.Name, "error", err)
		}
	}
}
