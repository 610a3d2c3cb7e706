//go:build windows

package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/user"
	"regexp"
	"strings"

	"github.com/Microsoft/go-winio"
)

func listen(pipeName string) (net.Listener, error) {
	return listenPipeWithCurrentUserDACL(pipeName)
}

func dial(ctx context.Context, pipeName string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, pipeName)
}

// listenPipeWithCurrentUserDACL creates a Named Pipe listener restricted to the
// current user. The DACL grants full access only to SYSTEM and the current
// user's SID, preventing other local users from connecting.
func listenPipeWithCurrentUserDACL(pipeName string) (net.Listener, error) {
	securityDescriptor, err := pipeSecurityDescriptor()
	if err != nil {
		return nil, err
	}
	return winio.ListenPipe(pipeName, &winio.PipeConfig{
		SecurityDescriptor: securityDescriptor,
		MessageMode:        false,
		InputBufferSize:    pipeBufferSize,
		OutputBufferSize:   pipeBufferSize,
	})
}

var validSIDPattern = regexp.MustCompile(`^S-1(-\d+)+$`)

func pipeSecurityDescriptor() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve current user: %w", err)
	}
	sid := strings.TrimSpace(current.Uid)
	if sid == "" {
		return "", errors.New("current user SID is unavailable")
	}
	if !validSIDPattern.MatchString(sid) {
		return "", fmt.Errorf("current user SID has unexpected format: %s", sid)
	}
	// D:P protected DACL, GA for SYSTEM and the current user SID.
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", sid), nil
}
