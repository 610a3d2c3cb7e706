//go:build !windows

package main

// setConsoleUTF8 is a no-op; terminals outside Windows are UTF-8 already.
func setConsoleUTF8() {}
