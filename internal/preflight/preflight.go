// Package preflight verifies the external toolchain before any stage with
// side effects runs. A preflight failure is always fatal; the pipeline
// never starts degraded.
package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dataspace-k8s/dsctl/internal/execx"
)

// MinRuntimeMajor is the minimum supported container runtime server major
// version. Anything from the 17.x engine line onward is fine.
const MinRuntimeMajor = 17

// Error describes why preflight refused to let the pipeline start.
type Error struct {
	// Missing lists required executables not found on PATH.
	Missing []string
	// VersionTooLow is set when the runtime server version is below MinRuntimeMajor.
	VersionTooLow bool
	// RuntimeDown is set when the runtime daemon did not answer.
	RuntimeDown bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("required tools missing from PATH: %s", strings.Join(e.Missing, ", ")))
	}
	if e.RuntimeDown {
		parts = append(parts, "container runtime daemon is not running")
	}
	if e.VersionTooLow {
		parts = append(parts, fmt.Sprintf("container runtime server version is below %d", MinRuntimeMajor))
	}
	if len(parts) == 0 {
		return "preflight failed"
	}
	return "preflight: " + strings.Join(parts, "; ")
}

// Checker runs the preflight checks through the execution port.
type Checker struct {
	runner execx.Runner
	logger *slog.Logger
}

// NewChecker constructs a Checker.
func NewChecker(runner execx.Runner, logger *slog.Logger) *Checker {
	return &Checker{runner: runner, logger: logger}
}

// Check verifies that every required executable is on PATH and, when the
// runtime binary is among them, that its daemon is running with a supported
// server version. Returns a *Error describing everything that is wrong.
func (c *Checker) Check(ctx context.Context, required []string) error {
	pfErr := &Error{}

	runtimePresent := false
	for _, tool := range required {
		if err := c.runner.LookPath(tool); err != nil {
			c.logger.Error("preflight check failed: missing required tool", "tool", tool, "error", err)
			pfErr.Missing = append(pfErr.Missing, tool)
			continue
		}
		c.logger.Info("preflight check ok", "tool", tool)
		if tool == "docker" {
			runtimePresent = true
		}
	}

	if runtimePresent {
		c.checkRuntime(ctx, pfErr)
	}

	if len(pfErr.Missing) > 0 || pfErr.VersionTooLow || pfErr.RuntimeDown {
		return pfErr
	}
	return nil
}

// checkRuntime asks the docker daemon for its server version.
func (c *Checker) checkRuntime(ctx context.Context, pfErr *Error) {
	res, err := c.runner.Run(ctx, execx.Command{
		Program: "docker",
		Args:    []string{"info", "--format", "{{.ServerVersion}}"},
		Quiet:   true,
	})
	if err != nil || res.ExitCode != 0 {
		c.logger.Error("preflight check failed: container runtime daemon unreachable", "error", err, "stderr", strings.TrimSpace(res.Stderr))
		pfErr.RuntimeDown = true
		return
	}

	version := strings.TrimSpace(res.Stdout)
	major, ok := majorVersion(version)
	if !ok {
		// An unparsable version is not worth blocking on.
		c.logger.Warn("could not parse container runtime version", "version", version)
		return
	}
	if major < MinRuntimeMajor {
		c.logger.Error("preflight check failed: container runtime too old", "version", version)
		pfErr.VersionTooLow = true
		return
	}
	c.logger.Info("preflight check ok", "tool", "docker daemon", "version", version)
}

func majorVersion(version string) (int, bool) {
	head, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, false
	}
	return major, true
}
