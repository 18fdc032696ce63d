// Package runner provides execution of external processing scripts.
// Each operation in the API is backed by one script that is invoked with
// positional string arguments and communicates results through its exit
// status, stdout and stderr.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
)

// Runner defines the interface for running an external processing script.
// Implementations must capture stdout and stderr fully and resolve only
// once the process has terminated.
type Runner interface {
	// Run executes the named script with the given positional arguments
	// and returns the accumulated stdout on success. A non-zero exit
	// status yields a *ProcessError carrying the accumulated stderr.
	Run(ctx context.Context, script string, args []string) (string, error)
}

// ScriptRunner implements Runner by spawning an interpreter process per
// invocation. Invocations are independent and may run concurrently; the
// runner holds no shared mutable state.
type ScriptRunner struct {
	// interpreter is the executable used to run scripts. Defaults to "python3".
	interpreter string
	// scriptsDir is the directory containing the processing scripts.
	scriptsDir string
}

// NewScriptRunner creates a new ScriptRunner.
// If interpreter is empty, it defaults to "python3" (found via PATH).
func NewScriptRunner(interpreter, scriptsDir string) *ScriptRunner {
	if interpreter == "" {
		interpreter = "python3"
	}
	return &ScriptRunner{interpreter: interpreter, scriptsDir: scriptsDir}
}

// Run executes the script and waits for it to terminate. Cancelling the
// context kills the process.
func (r *ScriptRunner) Run(ctx context.Context, script string, args []string) (string, error) {
	argv := append([]string{filepath.Join(r.scriptsDir, script)}, args...)

	// #nosec G204 - interpreter and scriptsDir are set by the application, not user input
	cmd := exec.CommandContext(ctx, r.interpreter, argv...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("script %s cancelled: %w", script, ctx.Err())
		}
		return "", &ProcessError{
			Script: script,
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return stdout.String(), nil
}

// ProcessError represents a script that exited with a non-zero status,
// including the captured stderr output.
type ProcessError struct {
	Script string
	Args   []string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("script %s failed: %v\nargs: %v\nstderr: %s", e.Script, e.Err, e.Args, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
