// Package procutil prepares child processes started by the CLI: HideWindow
// suppresses the console flash on Windows and Detach lets the background
// engine outlive the launching terminal.
package procutil
