// Package ipc carries CLI commands to the running engine: one JSON request
// line per connection, answered by one JSON response line. Windows uses a
// named pipe restricted to the current user; other platforms use a Unix
// socket in the temp directory.
package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"windowresizer/internal/userutil"
)

// Commands understood by the engine.
const (
	CommandPing       = "ping"
	CommandActivate   = "activate"
	CommandSave       = "save"
	CommandRestore    = "restore"
	CommandRestoreAll = "restore-all"
	CommandList       = "list"
	CommandLog        = "log"
	CommandReload     = "reload"
)

// PipeEnvVar overrides the default pipe name when it passes validation.
const PipeEnvVar = "WINDOWRESIZER_PIPE"

var pipeNamePattern = regexp.MustCompile(`(?i)^\\\\\.\\pipe\\windowresizer-[a-z0-9._-]{1,128}$`)

const defaultPipePrefix = `\\.\pipe\windowresizer-`

// Request is a single command.
type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	// ID correlates client and engine logs.
	ID string `json:"id,omitempty"`
}

// Response is the command result, shaped like a process exit.
type Response struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
}

// Errorf builds a failed response.
func Errorf(format string, args ...any) Response {
	return Response{ExitCode: 1, Stderr: strings.TrimRight(fmt.Sprintf(format, args...), "\n") + "\n"}
}

// CommandExecutor handles a request and returns a response.
type CommandExecutor interface {
	Execute(ctx context.Context, req Request) Response
}

// ExecutorFunc adapts a function to CommandExecutor.
type ExecutorFunc func(ctx context.Context, req Request) Response

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req Request) Response { return f(ctx, req) }

// DefaultPipeName returns the pipe path to use. If WINDOWRESIZER_PIPE is set
// and passes pattern validation, its value is used; otherwise a per-user
// default is constructed from the current username.
func DefaultPipeName() string {
	if v, ok := trustedPipeNameFromEnv(); ok {
		return v
	}
	return defaultPipePrefix + userutil.InstanceSuffix()
}

func trustedPipeNameFromEnv() (string, bool) {
	value := strings.TrimSpace(os.Getenv(PipeEnvVar))
	if value == "" {
		return "", false
	}
	if !pipeNamePattern.MatchString(value) {
		slog.Warn("[ipc] pipe override rejected: value does not match allowed pattern", "env", PipeEnvVar, "value", value)
		return "", false
	}
	return value, true
}

func encodeRequest(req Request) ([]byte, error) {
	return json.Marshal(req)
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	req.Command = strings.ToLower(strings.TrimSpace(req.Command))
	if req.Args == nil {
		req.Args = []string{}
	}
	return req, nil
}

func encodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

func decodeResponse(raw []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
