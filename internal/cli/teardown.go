package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dataspace-k8s/dsctl/internal/cluster"
	"github.com/dataspace-k8s/dsctl/internal/config"
	"github.com/dataspace-k8s/dsctl/internal/execx"
	"github.com/dataspace-k8s/dsctl/internal/infra"
	"github.com/dataspace-k8s/dsctl/internal/pipeline"
	"github.com/dataspace-k8s/dsctl/internal/preflight"
)

// teardownTools are the executables the teardown pipeline shells out to.
// Terraform is not among them: state cleanup only removes local files.
var teardownTools = []string{"docker", "kind"}

// newTeardownCommand creates the "teardown" subcommand that removes the
// dataspace environment after an explicit confirmation.
func newTeardownCommand(opts *Options) *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Tear down the local dataspace environment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := LoggerFromContext(ctx)

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			summary := &pipeline.Summary{}
			if skipConfirm {
				summary.Add("confirm", pipeline.OutcomeOk, "auto-approved")
			} else {
				if !confirmTeardown(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.ClusterName) {
					logger.Info("teardown aborted by operator", "cluster", cfg.ClusterName)
					return nil
				}
				summary.Add("confirm", pipeline.OutcomeOk, "confirmed interactively")
			}

			if err := enterWorkDir(cfg.WorkDir); err != nil {
				return err
			}

			runner := execx.NewRunner(logger)

			checker := preflight.NewChecker(runner, logger)
			if err := checker.Check(ctx, teardownTools); err != nil {
				return err
			}

			mgr := cluster.NewManager(runner, logger, cfg.ClusterName)
			applier := infra.NewApplier(runner, logger, cfg.InfraDir)

			runErr := pipeline.NewSequencer(logger).Run(ctx, summary, teardownStages(mgr, applier))
			summary.Log(logger)
			if runErr != nil {
				return runErr
			}

			logger.Info("teardown complete",
				"cluster", cfg.ClusterName,
				"warnings", summary.Count(pipeline.OutcomeWarned))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Do not prompt for confirmation")

	return cmd
}

// teardownStages assembles the teardown pipeline. Every stage after the
// confirmation gate is best-effort and independent: a failure in one never
// blocks the next, so teardown can be re-run against an already-clean
// environment and still succeed.
func teardownStages(mgr *cluster.Manager, applier *infra.Applier) []pipeline.Stage {
	return []pipeline.Stage{
		{
			Name: "remove-containers",
			Skip: func(ctx context.Context) (bool, string) {
				if len(mgr.NodeContainers(ctx)) == 0 {
					return true, "not found"
				}
				return false, ""
			},
			Action: func(ctx context.Context, sum *pipeline.Summary) error {
				failed := 0
				for _, id := range mgr.NodeContainers(ctx) {
					entry := "remove-container " + id
					if err := mgr.RemoveContainer(ctx, id); err != nil {
						sum.Add(entry, pipeline.OutcomeWarned, err.Error())
						failed++
						continue
					}
					sum.Add(entry, pipeline.OutcomeOk, "")
				}
				if failed > 0 {
					return fmt.Errorf("%d container removal(s) failed", failed)
				}
				return nil
			},
			Policy: pipeline.WarnContinue,
		},
		{
			Name: "delete-cluster",
			Skip: func(ctx context.Context) (bool, string) {
				if !mgr.Exists(ctx) {
					return true, "not found"
				}
				return false, ""
			},
			Action: func(ctx context.Context, _ *pipeline.Summary) error {
				return mgr.Delete(ctx)
			},
			Policy: pipeline.WarnContinue,
		},
		{
			Name: "clean-infra-state",
			Skip: func(_ context.Context) (bool, string) {
				if !applier.StateExists() {
					return true, "not found"
				}
				return false, ""
			},
			Action: func(_ context.Context, _ *pipeline.Summary) error {
				return applier.CleanState()
			},
			Policy: pipeline.WarnContinue,
		},
	}
}

// confirmTeardown prompts the operator and reports whether they answered
// affirmatively. Anything but y/yes aborts.
func confirmTeardown(in io.Reader, out io.Writer, clusterName string) bool {
	fmt.Fprintf(out, "This will delete the %q cluster, its node containers and local terraform state. Continue? [y/N]: ", clusterName)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
