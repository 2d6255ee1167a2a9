package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for agent operations. Use errors.Is() in calling code.
var (
	// ErrUnavailable indicates the agent could not be reached: transport
	// failure or timeout. The call may succeed if retried as a new attempt.
	ErrUnavailable = errors.New("agent unavailable")

	// ErrAgent indicates the agent was reached but returned an explicit
	// failure (auth, quota, refused request, empty response).
	ErrAgent = errors.New("agent error")

	// ErrPollTimeout indicates an asynchronous poll gave up before the
	// request record was completed. The record may still complete later;
	// a late completion is simply never read.
	ErrPollTimeout = errors.New("poll timeout")

	// ErrRequestNotFound indicates an unknown async request id.
	ErrRequestNotFound = errors.New("agent request not found")
)

// transportPatterns are error substrings that point at connectivity rather
// than at the agent itself.
var transportPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"timeout",
	"eof",
	"broken pipe",
}

// classify wraps a provider error with the matching sentinel so callers can
// branch without string matching of their own.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	msg := strings.ToLower(err.Error())
	for _, p := range transportPatterns {
		if strings.Contains(msg, p) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrAgent, err)
}
