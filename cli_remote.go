package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"windowresizer/internal/ipc"
)

var errEngineNotRunning = errors.New("windowresizer is not running (start it with `windowresizer start`)")

// newRemoteCommand forwards one command to the running engine.
func newRemoteCommand(command string, short string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd, command)
		},
	}
}

func runRemote(cmd *cobra.Command, command string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
	defer cancel()

	req := ipc.Request{Command: command, ID: uuid.NewString()}
	slog.Debug("[DEBUG-IPC] sending request", "command", command, "id", req.ID)
	resp, err := sendFn(ctx, defaultPipeNameFn(), req)
	if err != nil {
		if ipc.IsConnectionError(err) {
			return errEngineNotRunning
		}
		return fmt.Errorf("%s: %w", command, err)
	}
	fmt.Fprint(cmd.OutOrStdout(), resp.Stdout)
	fmt.Fprint(cmd.ErrOrStderr(), resp.Stderr)
	if resp.ExitCode != 0 {
		return &exitError{code: resp.ExitCode}
	}
	return nil
}
