// Package infra drives the terraform deployment unit: init and apply on the
// way up, state cleanup on the way down.
//
// Terraform in this deployment manages only in-cluster resources, so
// deleting the kind cluster already destroys everything it created. The
// teardown cleanup here removes only local bookkeeping (state, lock and
// module cache files), never live resources.
package infra

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dataspace-k8s/dsctl/internal/execx"
)

// stateFiles are the generated files terraform leaves in the infra
// directory, removed by CleanState. `.terraform` is the cached module and
// provider directory.
var stateFiles = []string{
	"terraform.tfstate",
	"terraform.tfstate.backup",
	".terraform.lock.hcl",
}

// Applier runs terraform against one infra directory.
type Applier struct {
	runner execx.Runner
	logger *slog.Logger
	dir    string
}

// NewApplier constructs an Applier for the given infra directory.
func NewApplier(runner execx.Runner, logger *slog.Logger, dir string) *Applier {
	return &Applier{runner: runner, logger: logger, dir: dir}
}

// Dir returns the infra directory.
func (a *Applier) Dir() string { return a.dir }

// Apply initializes the working directory (idempotent, safe to repeat) and
// then applies it. A failure at either phase is fatal for the deploy
// pipeline: partially-applied infrastructure must be inspected by the
// operator before retrying.
func (a *Applier) Apply(ctx context.Context) error {
	a.logger.Info("initializing infrastructure", "dir", a.dir)
	if err := a.terraform(ctx, "init", "-input=false"); err != nil {
		return fmt.Errorf("terraform init: %w", err)
	}

	a.logger.Info("applying infrastructure", "dir", a.dir)
	if err := a.terraform(ctx, "apply", "-input=false", "-auto-approve"); err != nil {
		return fmt.Errorf("terraform apply: %w", err)
	}
	return nil
}

func (a *Applier) terraform(ctx context.Context, args ...string) error {
	res, err := a.runner.Run(ctx, execx.Command{
		Program: "terraform",
		Args:    args,
		Dir:     a.dir,
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// StateExists reports whether the infra directory is present on disk.
func (a *Applier) StateExists() bool {
	info, err := os.Stat(a.dir)
	return err == nil && info.IsDir()
}

// CleanState removes terraform's generated state and lock files and the
// cached .terraform directory. Removal failures are collected rather than
// aborting so teardown stays best-effort.
func (a *Applier) CleanState() error {
	var errs []error
	for _, name := range stateFiles {
		path := filepath.Join(a.dir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		a.logger.Debug("removed state file", "path", path)
	}

	cacheDir := filepath.Join(a.dir, ".terraform")
	if err := os.RemoveAll(cacheDir); err != nil {
		errs = append(errs, fmt.Errorf("remove %s: %w", cacheDir, err))
	}

	return errors.Join(errs...)
}
