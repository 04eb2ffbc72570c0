package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
)

// ExecRunner runs steps as child processes, streaming their output
// through. Each invocation blocks until the child exits.
type ExecRunner struct {
	// Dir is the working directory for child processes. Empty means the
	// launcher's own working directory.
	Dir string

	// Stdout and Stderr receive the child's output. nil falls back to the
	// launcher's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes a single step
func (er *ExecRunner) Run(ctx context.Context, step Step) Result {
	startTime := time.Now()

	cmd := exec.CommandContext(ctx, step.Command, step.Args...)
	cmd.Dir = er.Dir

	if step.Env != nil {
		cmd.Env = step.Env
	}

	cmd.Stdout = er.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	cmd.Stderr = er.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()

	result := Result{
		Step:     step.Name,
		Command:  step.Command,
		Args:     step.Args,
		Duration: time.Since(startTime),
	}

	if err != nil {
		result.Err = err
		result.ExitCode = 1

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
	}

	return result
}
