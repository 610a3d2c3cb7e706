package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	setConsoleUTF8()
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// exitError carries a remote command's exit code to the process exit.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(stderr, "windowresizer:", err)
	return 1
}
