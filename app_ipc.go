package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.yaml.in/yaml/v3"

	"windowresizer/internal/config"
	"windowresizer/internal/ipc"
	"windowresizer/internal/session"
	"windowresizer/internal/windowsize"
)

// Execute serves one remote command. It implements ipc.CommandExecutor.
func (a *App) Execute(ctx context.Context, req ipc.Request) ipc.Response {
	slog.Debug("[DEBUG-IPC] request received", "command", req.Command, "id", req.ID)
	switch req.Command {
	case ipc.CommandPing:
		return ipc.Response{Stdout: "pong\n"}
	case ipc.CommandActivate:
		slog.Info("[ipc] second instance started, engine already running")
		a.notifyUser("WindowResizer is already running.")
		return ipc.Response{Stdout: "already running\n"}
	case ipc.CommandSave:
		return a.executeSave(ctx)
	case ipc.CommandRestore:
		return a.executeRestore(ctx)
	case ipc.CommandRestoreAll:
		return a.executeRestoreAll(ctx)
	case ipc.CommandList:
		return a.executeList(ctx)
	case ipc.CommandLog:
		return a.executeLog()
	case ipc.CommandReload:
		return a.executeReload(ctx)
	default:
		return ipc.Errorf("unknown command %q", req.Command)
	}
}

func (a *App) executeSave(ctx context.Context) ipc.Response {
	var (
		res windowsize.Result
		err error
	)
	if callErr := a.call(ctx, ipc.CommandSave, func(ctx context.Context) {
		res, err = a.controller.Save(session.WithTrigger(ctx, "ipc"))
	}); callErr != nil {
		return ipc.Errorf("save: %v", callErr)
	}
	if err != nil {
		return triggerErrorResponse("save", err)
	}
	if !res.Changed() {
		return ipc.Response{Stdout: "nothing to save\n"}
	}
	var out strings.Builder
	for _, change := range res.Changes {
		verb := "updated"
		if change.Inserted {
			verb = "added"
		}
		fmt.Fprintf(&out, "%s %s %q (%s) %s\n", verb, change.Record.Name, change.Record.Title,
			change.Category, change.Record.Rect)
	}
	return ipc.Response{Stdout: out.String()}
}

func (a *App) executeRestore(ctx context.Context) ipc.Response {
	var (
		outcome session.Outcome
		err     error
	)
	if callErr := a.call(ctx, ipc.CommandRestore, func(ctx context.Context) {
		outcome, err = a.controller.Restore(session.WithTrigger(ctx, "ipc"))
	}); callErr != nil {
		return ipc.Errorf("restore: %v", callErr)
	}
	if err != nil {
		return triggerErrorResponse("restore", err)
	}
	if !outcome.Applied {
		return ipc.Errorf("no saved size for %s %q", outcome.Process, outcome.Title)
	}
	return ipc.Response{Stdout: formatOutcome(outcome)}
}

func (a *App) executeRestoreAll(ctx context.Context) ipc.Response {
	var (
		result session.BulkResult
		err    error
	)
	if callErr := a.call(ctx, ipc.CommandRestoreAll, func(ctx context.Context) {
		result, err = a.controller.RestoreAll(session.WithTrigger(ctx, "ipc"))
	}); callErr != nil {
		return ipc.Errorf("restore-all: %v", callErr)
	}
	if err != nil {
		return triggerErrorResponse("restore-all", err)
	}
	var out strings.Builder
	for _, outcome := range result.Applied {
		out.WriteString(formatOutcome(outcome))
	}
	fmt.Fprintf(&out, "restored %d, skipped %d, failed %d\n", len(result.Applied), result.Skipped, result.Failed)
	return ipc.Response{Stdout: out.String()}
}

func (a *App) executeList(ctx context.Context) ipc.Response {
	var records []windowsize.Record
	if err := a.call(ctx, ipc.CommandList, func(context.Context) {
		records = a.controller.State().Store.Records()
	}); err != nil {
		return ipc.Errorf("list: %v", err)
	}
	if len(records) == 0 {
		return ipc.Response{Stdout: "no saved window sizes\n"}
	}
	raw, err := yaml.Marshal(records)
	if err != nil {
		return ipc.Errorf("list: %v", err)
	}
	return ipc.Response{Stdout: string(raw)}
}

func (a *App) executeLog() ipc.Response {
	records := a.journal.Snapshot()
	if len(records) == 0 {
		return ipc.Response{Stdout: "no warnings or errors this session\n"}
	}
	raw, err := yaml.Marshal(records)
	if err != nil {
		return ipc.Errorf("log: %v", err)
	}
	return ipc.Response{Stdout: string(raw)}
}

func (a *App) executeReload(ctx context.Context) ipc.Response {
	var (
		records int
		err     error
	)
	if callErr := a.call(ctx, ipc.CommandReload, func(context.Context) {
		_, err = a.reloadFromDisk()
		records = a.controller.State().Store.Len()
	}); callErr != nil {
		return ipc.Errorf("reload: %v", callErr)
	}
	if errors.Is(err, config.ErrNoRecords) {
		return ipc.Response{Stdout: fmt.Sprintf("%s has no window records; keeping the current %d record(s)\n", a.configPath, records)}
	}
	if err != nil {
		slog.Warn("[WARN-CONFIG] reload failed, keeping current settings", "path", a.configPath, "error", err)
		return ipc.Errorf("reload %s: %v", a.configPath, err)
	}
	return ipc.Response{Stdout: fmt.Sprintf("reloaded %d record(s) from %s\n", records, a.configPath)}
}

func formatOutcome(o session.Outcome) string {
	return fmt.Sprintf("restored %s %q using %q (%s) %s %s\n",
		o.Process, o.Title, o.Record.Title, o.Category, o.Record.State, o.Record.Rect)
}

func triggerErrorResponse(trigger string, err error) ipc.Response {
	if errors.Is(err, session.ErrSuppressed) || errors.Is(err, session.ErrMinimized) {
		return ipc.Response{ExitCode: 2, Stderr: trigger + " skipped: " + err.Error() + "\n"}
	}
	return ipc.Errorf("%s: %v", trigger, err)
}
