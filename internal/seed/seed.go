// Package seed runs the optional post-deploy seeding script. Seeding is
// best-effort post-processing: its failure never fails the pipeline.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dataspace-k8s/dsctl/internal/execx"
)

// Invoker executes the seeding script through the execution port.
type Invoker struct {
	runner execx.Runner
	logger *slog.Logger
}

// NewInvoker constructs an Invoker.
func NewInvoker(runner execx.Runner, logger *slog.Logger) *Invoker {
	return &Invoker{runner: runner, logger: logger}
}

// Invoke runs the script at scriptPath with bash. A missing script and a
// non-zero exit both return an error the caller records as a warning; the
// error text carries the manual-rerun hint for the summary.
func (i *Invoker) Invoke(ctx context.Context, scriptPath string) error {
	if _, err := os.Stat(scriptPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("seed script %q not found; run it manually once the deployment settles", scriptPath)
		}
		return fmt.Errorf("seed script %q: %w", scriptPath, err)
	}

	i.logger.Info("seeding dataspace", "script", scriptPath)
	res, err := i.runner.Run(ctx, execx.Command{
		Program: "bash",
		Args:    []string{scriptPath},
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("seed script %q exited with status %d; rerun it manually", scriptPath, res.ExitCode)
	}
	return nil
}
