package whisper

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by this package.
type ErrorKind string

const (
	// KindInvalidRequest marks requests rejected before any process spawn.
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindUnavailable marks a failed executable smoke test.
	KindUnavailable ErrorKind = "executable_unavailable"
	// KindSpawn marks OS-level failures to launch the process.
	KindSpawn ErrorKind = "spawn"
	// KindIncomplete marks a process that ended without producing the
	// expected output artifact. Timeouts surface through this path too.
	KindIncomplete ErrorKind = "incomplete"
)

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// Error is a kind-aware error with optional command context. None of these
// are retried automatically; the caller decides whether to retry.
type Error struct {
	Kind       ErrorKind  `json:"kind"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats failures for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Kind,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// newError builds an Error without command context.
func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the error kind from an error chain, or "" when the chain
// carries no kind-aware error.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}
