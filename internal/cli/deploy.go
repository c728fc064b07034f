package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataspace-k8s/dsctl/internal/cluster"
	"github.com/dataspace-k8s/dsctl/internal/config"
	"github.com/dataspace-k8s/dsctl/internal/execx"
	"github.com/dataspace-k8s/dsctl/internal/infra"
	"github.com/dataspace-k8s/dsctl/internal/kube"
	"github.com/dataspace-k8s/dsctl/internal/pipeline"
	"github.com/dataspace-k8s/dsctl/internal/preflight"
	"github.com/dataspace-k8s/dsctl/internal/seed"
)

// deployTools are the executables the deploy pipeline shells out to.
var deployTools = []string{"docker", "kind", "kubectl", "terraform"}

const (
	ingressWaitTimeout  = 90 * time.Second
	ingressWaitInterval = 3 * time.Second
)

// deps bundles the collaborators both pipelines are assembled from.
type deps struct {
	cfg     config.Config
	cluster *cluster.Manager
	images  *cluster.ImageLoader
	kube    *kube.Client
	waiter  *kube.Waiter
	infra   *infra.Applier
	seeder  *seed.Invoker
}

// newDeps wires the component graph for one pipeline run.
func newDeps(cfg config.Config, runner execx.Runner, logger *slog.Logger) deps {
	kubeClient := kube.NewClient(runner, logger)
	return deps{
		cfg:     cfg,
		cluster: cluster.NewManager(runner, logger, cfg.ClusterName),
		images:  cluster.NewImageLoader(runner, logger, cfg.ClusterName),
		kube:    kubeClient,
		waiter:  kube.NewWaiter(kubeClient, logger),
		infra:   infra.NewApplier(runner, logger, cfg.InfraDir),
		seeder:  seed.NewInvoker(runner, logger),
	}
}

// newDeployCommand creates the "deploy" subcommand that provisions the full
// dataspace environment.
func newDeployCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Provision the local dataspace environment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := LoggerFromContext(ctx)

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			if err := enterWorkDir(cfg.WorkDir); err != nil {
				return err
			}

			runner := execx.NewRunner(logger)

			checker := preflight.NewChecker(runner, logger)
			if err := checker.Check(ctx, deployTools); err != nil {
				return err
			}

			if _, err := os.Stat(cfg.ClusterConfig); err != nil {
				return fmt.Errorf("cluster topology config %q: %w", cfg.ClusterConfig, err)
			}
			if _, err := os.Stat(cfg.InfraDir); err != nil {
				return fmt.Errorf("infra directory %q: %w", cfg.InfraDir, err)
			}

			d := newDeps(cfg, runner, logger)
			summary := &pipeline.Summary{}

			runErr := pipeline.NewSequencer(logger).Run(ctx, summary, deployStages(d))
			summary.Log(logger)
			if runErr != nil {
				return runErr
			}

			logger.Info("deployment complete",
				"cluster", cfg.ClusterName,
				"warnings", summary.Count(pipeline.OutcomeWarned))
			return nil
		},
	}
}

// enterWorkDir switches to the configured working directory, if any.
func enterWorkDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("enter working directory %q: %w", dir, err)
	}
	return nil
}

// deployStages assembles the ordered deploy pipeline. Idempotency lives in
// each stage's skip predicate; failure severity in its policy.
func deployStages(d deps) []pipeline.Stage {
	return []pipeline.Stage{
		{
			Name: "create-cluster",
			Skip: func(ctx context.Context) (bool, string) {
				if d.cluster.Exists(ctx) {
					return true, "cluster already exists"
				}
				return false, ""
			},
			Action: func(ctx context.Context, _ *pipeline.Summary) error {
				return d.cluster.Create(ctx, d.cfg.ClusterConfig)
			},
			Policy: pipeline.Fatal,
		},
		{
			Name: "ingress-controller",
			Skip: func(ctx context.Context) (bool, string) {
				if d.kube.IngressInstalled(ctx) {
					return true, "ingress namespace already exists"
				}
				return false, ""
			},
			Action: func(ctx context.Context, _ *pipeline.Summary) error {
				return d.kube.ApplyManifest(ctx, d.cfg.IngressManifest)
			},
			Policy: pipeline.Fatal,
		},
		{
			Name: "ingress-ready",
			Action: func(ctx context.Context, _ *pipeline.Summary) error {
				spec := pipeline.NewPollSpec(ingressWaitTimeout, ingressWaitInterval)
				if pipeline.Await(ctx, d.kube.IngressControllerReady, spec) == pipeline.TimedOut {
					return fmt.Errorf("ingress controller not ready within %s", spec.Timeout)
				}
				return nil
			},
			Policy: pipeline.WarnContinue,
		},
		{
			Name: "load-images",
			Action: func(ctx context.Context, sum *pipeline.Summary) error {
				return d.images.LoadAll(ctx, d.cfg.Images, sum)
			},
			Policy: pipeline.WarnContinue,
		},
		{
			Name: "apply-infra",
			Action: func(ctx context.Context, _ *pipeline.Summary) error {
				return d.infra.Apply(ctx)
			},
			Policy: pipeline.Fatal,
		},
		{
			Name: "wait-workloads",
			Action: func(ctx context.Context, sum *pipeline.Summary) error {
				spec := pipeline.NewPollSpec(d.cfg.WaitTimeout, d.cfg.WaitInterval)
				return d.waiter.WaitAll(ctx, d.cfg.Namespace, d.cfg.KeyResources, spec, sum)
			},
			Policy: pipeline.WarnContinue,
		},
		{
			Name: "seed-dataspace",
			Action: func(ctx context.Context, _ *pipeline.Summary) error {
				return d.seeder.Invoke(ctx, d.cfg.SeedScript)
			},
			Policy: pipeline.WarnContinue,
		},
	}
}
