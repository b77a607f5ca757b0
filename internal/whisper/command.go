package whisper

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
)

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// errSpawn wraps OS-level launch failures so callers can distinguish them
// from a process that started and then exited non-zero.
var errSpawn = errors.New("spawn failed")

// commandRunner abstracts process execution for testability. onStderrLine,
// when non-nil, receives each stderr line as it is produced.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string, onStderrLine func(string)) (commandResult, error)
}

// execRunner executes commands via os/exec with argument-vector spawning.
// No shell is involved anywhere; quoting rules never apply.
type execRunner struct{}

// Run executes one command, streams stderr lines, and captures output and
// exit code. Context cancellation kills the process.
func (r *execRunner) Run(ctx context.Context, name string, args []string, onStderrLine func(string)) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return commandResult{ExitCode: -1}, errors.Join(errSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return commandResult{ExitCode: -1}, errors.Join(errSpawn, err)
	}

	stderr := drainStderr(stderrPipe, onStderrLine)

	waitErr := cmd.Wait()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr,
		ExitCode: 0,
	}
	if waitErr != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, waitErr
	}

	return result, nil
}

// drainStderr streams lines to onLine and returns everything read. When the
// scanner stops on an error (a line over its buffer limit, a read failure)
// the remaining bytes are drained raw so the process never blocks writing to
// a full pipe.
func drainStderr(r io.Reader, onLine func(string)) string {
	var out strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		out.WriteString(line)
		out.WriteString("\n")
		if onLine != nil {
			onLine(line)
		}
	}
	if scanner.Err() != nil {
		rest, _ := io.ReadAll(r)
		out.Write(rest)
	}

	return out.String()
}
