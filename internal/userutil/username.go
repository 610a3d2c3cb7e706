// Package userutil derives the per-user suffix shared by the pipe, socket
// and mutex names.
package userutil

import (
	"os"
	"os/user"
	"regexp"
	"strings"
)

var invalidUsernameRune = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

var currentUserFn = user.Current

// SanitizeUsername normalizes username-like values used in pipe/mutex names.
func SanitizeUsername(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return invalidUsernameRune.ReplaceAllString(value, "_")
}

// CurrentUsername returns USERNAME, or the OS account name when it is unset.
// The result is not sanitized.
func CurrentUsername() string {
	if username := strings.TrimSpace(os.Getenv("USERNAME")); username != "" {
		return username
	}
	if current, err := currentUserFn(); err == nil {
		return current.Username
	}
	return ""
}

// InstanceSuffix is the sanitized current username.
func InstanceSuffix() string {
	return SanitizeUsername(CurrentUsername())
}
