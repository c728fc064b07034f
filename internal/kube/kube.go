// Package kube provides the kubectl-backed predicates and operations used
// by the deploy pipeline.
package kube

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dataspace-k8s/dsctl/internal/execx"
)

// ingressNamespace is where the ingress-nginx controller manifest installs
// its workloads.
const ingressNamespace = "ingress-nginx"

// Client wraps kubectl execution behind the execution port.
type Client struct {
	runner execx.Runner
	logger *slog.Logger
}

// NewClient constructs a Client.
func NewClient(runner execx.Runner, logger *slog.Logger) *Client {
	return &Client{runner: runner, logger: logger}
}

// NamespaceExists reports whether the named namespace exists.
func (c *Client) NamespaceExists(ctx context.Context, name string) bool {
	res, err := c.runner.Run(ctx, execx.Command{
		Program: "kubectl",
		Args:    []string{"get", "namespace", name},
		Quiet:   true,
	})
	return err == nil && res.ExitCode == 0
}

// ApplyManifest applies a manifest file or URL with kubectl apply -f.
func (c *Client) ApplyManifest(ctx context.Context, source string) error {
	res, err := c.runner.Run(ctx, execx.Command{
		Program: "kubectl",
		Args:    []string{"apply", "-f", source},
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("kubectl apply -f %s exited with status %d", source, res.ExitCode)
	}
	return nil
}

// IngressInstalled reports whether the ingress controller namespace exists.
// The deploy pipeline uses it as the install stage's idempotency check.
func (c *Client) IngressInstalled(ctx context.Context) bool {
	return c.NamespaceExists(ctx, ingressNamespace)
}

// IngressControllerReady reports whether the ingress-nginx controller pod
// is running.
func (c *Client) IngressControllerReady(ctx context.Context) bool {
	res, err := c.runner.Run(ctx, execx.Command{
		Program: "kubectl",
		Args: []string{
			"get", "pods",
			"-n", ingressNamespace,
			"-l", "app.kubernetes.io/component=controller",
			"--no-headers",
		},
		Quiet: true,
	})
	if err != nil || res.ExitCode != 0 {
		return false
	}
	return anyPodMatches(res.Stdout, "", "Running")
}

// WorkloadReady reports whether some pod in the namespace whose name starts
// with name is Running or Completed. Status is re-derived on every call;
// the cluster is the source of truth.
func (c *Client) WorkloadReady(ctx context.Context, namespace, name string) bool {
	res, err := c.runner.Run(ctx, execx.Command{
		Program: "kubectl",
		Args:    []string{"get", "pods", "-n", namespace, "--no-headers"},
		Quiet:   true,
	})
	if err != nil || res.ExitCode != 0 {
		return false
	}
	return anyPodMatches(res.Stdout, name, "Running", "Completed")
}

// anyPodMatches scans `kubectl get pods --no-headers` output for a pod whose
// name has the given prefix and whose STATUS column is one of the wanted
// values. An empty prefix matches every pod.
func anyPodMatches(output, prefix string, statuses ...string) bool {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if prefix != "" && !strings.HasPrefix(fields[0], prefix) {
			continue
		}
		for _, status := range statuses {
			if fields[2] == status {
				return true
			}
		}
	}
	return false
}
