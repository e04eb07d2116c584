// Package backend defines the capability answering tool invocations and
// the selection policy between the real database service and its
// deterministic substitute.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/pgmcp/pgmcp/internal/mcp"
)

// Backend executes named tools. Invoke returns an error only for failures
// of the backend itself; a reachable backend rejecting the operation
// reports that through the result or a plain (non-connectivity) error,
// which the Selector converts into an isError result.
type Backend interface {
	Name() string
	HealthProbe(ctx context.Context) error
	Invoke(ctx context.Context, tool string, args mcp.M) (*mcp.ToolsCallResponse, error)
}

// ConnectivityError marks a connectivity-class failure: the backend is
// unreachable, refused the connection, or timed out. Only this class of
// failure may trigger a fallback transition.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("backend unreachable during %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Unreachable wraps err as a connectivity-class failure.
func Unreachable(op string, err error) error {
	return &ConnectivityError{Op: op, Err: err}
}

// IsConnectivity reports whether err is connectivity-class. Timeouts and
// transport-level errors count; everything else is a domain failure from a
// reachable backend.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	var ce *ConnectivityError
	if errors.As(err, &ce) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
