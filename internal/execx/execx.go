// Package execx abstracts external tool invocation behind a narrow port so
// pipeline logic can be tested against a recording fake instead of real
// infrastructure.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/dataspace-k8s/dsctl/internal/logging"
)

// Command describes a single external tool invocation.
type Command struct {
	// Program is the executable name resolved via PATH.
	Program string
	// Args are the arguments passed to the program.
	Args []string
	// Dir is the working directory for the child process; empty inherits.
	Dir string
	// Stdin is optional input piped to the child process.
	Stdin []byte
	// Quiet suppresses forwarding of child output to the logger.
	// Output is still captured in the Result either way.
	Quiet bool
}

// Result holds the observable outcome of one invocation. A non-zero exit
// code is data, not an error; callers decide what it means.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Error reports that a program could not be launched at all (not found,
// permission denied). Exit status of a launched program never produces it.
type Error struct {
	Program string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Program, e.Err)
}

// Unwrap exposes the underlying launch failure.
func (e *Error) Unwrap() error { return e.Err }

// Runner is the execution port all components talk to.
type Runner interface {
	// Run executes the command and blocks until it exits.
	Run(ctx context.Context, cmd Command) (Result, error)
	// LookPath reports whether the named executable is resolvable.
	LookPath(name string) error
}

// ExecRunner runs commands with os/exec, teeing child output into slog.
type ExecRunner struct {
	logger *slog.Logger
}

// NewRunner constructs an ExecRunner bound to the provided logger.
func NewRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// LookPath resolves name via exec.LookPath.
func (r *ExecRunner) LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}

// Run executes the command. Exit status is returned inside Result; an error
// is returned only when the program cannot be launched or the context is
// canceled while the child runs.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	if c.Quiet {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = io.MultiWriter(&stdout, logging.NewWriter(r.logger, slog.LevelInfo, "tool", c.Program))
		cmd.Stderr = io.MultiWriter(&stderr, logging.NewWriter(r.logger, slog.LevelWarn, "tool", c.Program))
	}

	r.logger.Debug("running command", "cmd", c.Program, "args", c.Args, "dir", c.Dir)

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, &Error{Program: c.Program, Err: err}
}
