package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	defaultPipeDialTimeout = 3 * time.Second
	defaultPipeRWTimeout   = 15 * time.Second
	maxPipeResponseBytes   = 1 << 20
)

// DialError reports that no engine answered on the pipe.
type DialError struct {
	Pipe string
	Err  error
}

func (e *DialError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Pipe, e.Err)
}

func (e *DialError) Unwrap() error { return e.Err }

// Send sends one request and waits for one response.
func Send(ctx context.Context, pipeName string, req Request) (Response, error) {
	if pipeName == "" {
		pipeName = DefaultPipeName()
	}

	dialCtx, cancel := context.WithTimeout(ctx, defaultPipeDialTimeout)
	conn, err := dial(dialCtx, pipeName)
	cancel()
	if err != nil {
		return Response{}, &DialError{Pipe: pipeName, Err: err}
	}
	defer conn.Close()

	deadline := time.Now().Add(defaultPipeRWTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}

	rawReq, err := encodeRequest(req)
	if err != nil {
		return Response{}, err
	}
	if _, err := conn.Write(append(rawReq, '\n')); err != nil {
		return Response{}, err
	}

	respRaw, err := readDelimitedFrame(bufio.NewReaderSize(conn, maxPipeResponseBytes+1), maxPipeResponseBytes)
	if err != nil {
		return Response{}, err
	}

	resp, err := decodeResponse(respRaw)
	if err != nil {
		return Response{}, fmt.Errorf("invalid response: %w", err)
	}
	return resp, nil
}

func readDelimitedFrame(reader *bufio.Reader, maxBytes int) ([]byte, error) {
	raw, err := reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("frame exceeds %d bytes", maxBytes)
	}
	if errors.Is(err, io.EOF) {
		if len(raw) == 0 {
			return nil, io.EOF
		}
		return raw, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// IsConnectionError returns true when the error indicates that the pipe
// server is absent or unreachable (dial/connect failures).
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var dialErr *DialError
	if errors.As(err, &dialErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "open"
	}
	return false
}
