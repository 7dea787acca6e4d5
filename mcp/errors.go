package mcp

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrAuthRequired is returned before any network I/O when a tool
	// requires authentication and no access token is set.
	ErrAuthRequired = errors.New("authentication required: no access token set")

	// ErrNotInitialized is returned when a tool call is attempted
	// before a session has been established.
	ErrNotInitialized = errors.New("client not initialized")

	// ErrServerDisabled marks a skipped, disabled server. Not a
	// failure: the registry treats it as a configuration skip.
	ErrServerDisabled = errors.New("server is disabled")
)

// Stage identifies the initialization step that failed.
type Stage string

const (
	StageHealthCheck Stage = "health_check"
	StageHandshake   Stage = "handshake"
	StageDiscovery   Stage = "discovery"
)

// InitError reports a failed client initialization, tagged with the
// server name and the failing stage. It aborts only the owning client.
type InitError struct {
	Server string
	Stage  Stage
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("server %q: %s failed: %s", e.Server, e.Stage, e.Err.Error())
}

func (e *InitError) Unwrap() error {
	return e.Err
}
