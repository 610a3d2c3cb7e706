package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"windowresizer/internal/config"
	"windowresizer/internal/ipc"
	"windowresizer/internal/procutil"
	"windowresizer/internal/sessionlog"
	"windowresizer/internal/singleinstance"
)

// Test seams.
var (
	sendFn         = ipc.Send
	tryLockFn      = singleinstance.TryLock
	executableFn   = os.Executable
	startProcessFn = func(cmd *exec.Cmd) error { return cmd.Start() }
	defaultPathFn  = config.DefaultPath
	runEngineFn    = runEngine
)

const (
	remoteTimeout = 15 * time.Second
	probeTimeout  = 2 * time.Second
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	verbose bool
}

// newRootCommand builds the CLI. Without a subcommand it runs the engine.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "windowresizer",
		Short: "Save and restore window positions and sizes",
		Long: "WindowResizer remembers the geometry of application windows and restores it on a\n" +
			"global hotkey or when a window opens. Without a subcommand the engine runs in the\n" +
			"foreground; the other commands control a running engine.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(slog.New(newLogHandler(cmd.ErrOrStderr(), opts.verbose)))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngineFn(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose (debug) logging")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newStartCommand(opts))
	cmd.AddCommand(newRemoteCommand(ipc.CommandSave, "Save the foreground window's size"))
	cmd.AddCommand(newRemoteCommand(ipc.CommandRestore, "Restore the foreground window's saved size"))
	cmd.AddCommand(newRemoteCommand(ipc.CommandRestoreAll, "Restore every open window that has a saved size"))
	cmd.AddCommand(newRemoteCommand(ipc.CommandList, "Print the saved window sizes as YAML"))
	cmd.AddCommand(newRemoteCommand(ipc.CommandLog, "Print this session's warnings and errors"))
	cmd.AddCommand(newRemoteCommand(ipc.CommandReload, "Re-read the config document"))
	cmd.AddCommand(newConfigCommand())
	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the engine in the foreground (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngineFn(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func newStartCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the engine in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startDetached(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
}

func newLogHandler(w io.Writer, verbose bool) slog.Handler {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// runEngine holds the single-instance lock and runs the engine until
// interrupted. A second launch asks the running engine to announce itself
// and exits.
func runEngine(ctx context.Context, opts *rootOptions, stdout io.Writer, stderr io.Writer) error {
	lock, err := tryLockFn(singleinstance.DefaultMutexName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[DEBUG-SINGLE] another instance is already running, signaling activation")
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if _, sendErr := sendFn(probeCtx, defaultPipeNameFn(), ipc.Request{Command: ipc.CommandActivate}); sendErr != nil {
			slog.Warn("[DEBUG-SINGLE] failed to signal existing instance", "error", sendErr)
		}
		fmt.Fprintln(stdout, "windowresizer is already running")
		return nil
	}
	if err != nil {
		slog.Warn("[DEBUG-SINGLE] lock creation failed, proceeding without single-instance guard", "error", err)
	}
	if lock != nil {
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				slog.Warn("[DEBUG-SINGLE] lock release failed", "error", releaseErr)
			}
		}()
	}

	journal := sessionlog.NewJournal(sessionlog.Options{})
	previous := slog.Default()
	slog.SetDefault(slog.New(sessionlog.NewTeeHandler(newLogHandler(stderr, opts.verbose), slog.LevelWarn, journal.Append)))
	defer slog.SetDefault(previous)

	app := NewApp(defaultPathFn(), defaultAppDeps(journal))
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.startup(runCtx); err != nil {
		return err
	}
	<-runCtx.Done()
	slog.Info("[session] shutdown requested")
	app.shutdown()
	return nil
}

// startDetached relaunches the executable with `run` outside the current
// console.
func startDetached(ctx context.Context, opts *rootOptions, stdout io.Writer) error {
	if engineRunning(ctx) {
		fmt.Fprintln(stdout, "windowresizer is already running")
		return nil
	}
	exe, err := executableFn()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := []string{"run"}
	if opts.verbose {
		args = append(args, "--verbose")
	}
	child := exec.Command(exe, args...)
	procutil.Detach(child)
	if err := startProcessFn(child); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	pid := 0
	if child.Process != nil {
		pid = child.Process.Pid
		if err := child.Process.Release(); err != nil {
			slog.Debug("[DEBUG-START] release child process handle failed", "error", err)
		}
	}
	fmt.Fprintf(stdout, "windowresizer started (pid %d)\n", pid)
	return nil
}

// engineRunning reports whether an engine answers on the pipe.
func engineRunning(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	resp, err := sendFn(probeCtx, defaultPipeNameFn(), ipc.Request{Command: ipc.CommandPing})
	return err == nil && resp.ExitCode == 0
}
