// Package cluster manages the local kind cluster and the runtime containers
// that back its nodes.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dataspace-k8s/dsctl/internal/execx"
)

// Manager drives kind and docker for one named cluster. Cluster state is
// never cached; kind is the source of truth and may change outside dsctl.
type Manager struct {
	runner execx.Runner
	logger *slog.Logger
	name   string
}

// NewManager constructs a Manager for the named cluster.
func NewManager(runner execx.Runner, logger *slog.Logger, name string) *Manager {
	return &Manager{runner: runner, logger: logger, name: name}
}

// Name returns the cluster name.
func (m *Manager) Name() string { return m.name }

// Exists reports whether a kind cluster with the configured name exists.
func (m *Manager) Exists(ctx context.Context) bool {
	res, err := m.runner.Run(ctx, execx.Command{
		Program: "kind",
		Args:    []string{"get", "clusters"},
		Quiet:   true,
	})
	if err != nil || res.ExitCode != 0 {
		return false
	}
	for _, line := range strings.Fields(res.Stdout) {
		if line == m.name {
			return true
		}
	}
	return false
}

// Create provisions the cluster from the given topology config file.
func (m *Manager) Create(ctx context.Context, configPath string) error {
	res, err := m.runner.Run(ctx, execx.Command{
		Program: "kind",
		Args:    []string{"create", "cluster", "--name", m.name, "--config", configPath},
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("kind create cluster exited with status %d", res.ExitCode)
	}
	return nil
}

// Delete removes the cluster.
func (m *Manager) Delete(ctx context.Context) error {
	res, err := m.runner.Run(ctx, execx.Command{
		Program: "kind",
		Args:    []string{"delete", "cluster", "--name", m.name},
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("kind delete cluster exited with status %d", res.ExitCode)
	}
	return nil
}

// NodeContainers lists IDs of runtime containers whose names match the
// cluster name. kind names node containers <cluster>-control-plane,
// <cluster>-worker and so on, so a name filter catches them all.
func (m *Manager) NodeContainers(ctx context.Context) []string {
	res, err := m.runner.Run(ctx, execx.Command{
		Program: "docker",
		Args:    []string{"ps", "-aq", "--filter", "name=" + m.name},
		Quiet:   true,
	})
	if err != nil || res.ExitCode != 0 {
		return nil
	}
	return strings.Fields(res.Stdout)
}

// RemoveContainer force-removes one container by ID.
func (m *Manager) RemoveContainer(ctx context.Context, id string) error {
	res, err := m.runner.Run(ctx, execx.Command{
		Program: "docker",
		Args:    []string{"rm", "-f", id},
		Quiet:   true,
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("docker rm -f %s exited with status %d: %s", id, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}
