package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "mvd", cfg.ClusterName)
	assert.Equal(t, "mvd", cfg.Namespace)
	assert.Equal(t, "deployment", cfg.InfraDir)
	assert.Equal(t, 5*time.Minute, cfg.WaitTimeout)
	assert.Equal(t, 5*time.Second, cfg.WaitInterval)
	assert.NotEmpty(t, cfg.Images)
	assert.NotEmpty(t, cfg.KeyResources)
}

func TestLoadMissingDefaultPathFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().ClusterName, cfg.ClusterName)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsctl.yaml")
	data := `
clusterName: edge
namespace: edge-ns
images:
  - only-image:dev
waitTimeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "edge", cfg.ClusterName)
	assert.Equal(t, "edge-ns", cfg.Namespace)
	assert.Equal(t, []string{"only-image:dev"}, cfg.Images)
	assert.Equal(t, 30*time.Second, cfg.WaitTimeout)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().SeedScript, cfg.SeedScript)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clusterName: from-file\n"), 0o644))

	t.Setenv("DSCTL_CLUSTER_NAME", "from-env")
	t.Setenv("DSCTL_KEY_RESOURCES", "a,b")
	t.Setenv("DSCTL_WAIT_INTERVAL", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ClusterName)
	assert.Equal(t, []string{"a", "b"}, cfg.KeyResources)
	assert.Equal(t, 2*time.Second, cfg.WaitInterval)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clusterName: [broken\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
