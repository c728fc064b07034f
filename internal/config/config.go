// Package config contains the loader and strongly typed model for the dsctl
// configuration. Values are layered: built-in defaults, then an optional
// dsctl.yaml file, then DSCTL_* environment variables (a local .env file is
// honored first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	envparse "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the default location of the dsctl configuration file.
const DefaultPath = "dsctl.yaml"

// Config describes one local dataspace deployment. It is constructed once
// at startup and passed read-only through both pipelines.
type Config struct {
	// WorkDir is an optional directory dsctl switches to before running a
	// pipeline; all relative paths below resolve against it.
	WorkDir string `yaml:"workDir" env:"DSCTL_WORK_DIR"`
	// ClusterName is the kind cluster name from DSCTL_CLUSTER_NAME.
	ClusterName string `yaml:"clusterName" env:"DSCTL_CLUSTER_NAME"`
	// Namespace is the namespace the dataspace workloads run in.
	Namespace string `yaml:"namespace" env:"DSCTL_NAMESPACE"`
	// ClusterConfig is the path to the kind topology config file.
	ClusterConfig string `yaml:"clusterConfig" env:"DSCTL_CLUSTER_CONFIG"`
	// InfraDir is the directory holding the terraform deployment unit.
	InfraDir string `yaml:"infraDir" env:"DSCTL_INFRA_DIR"`
	// SeedScript is the path to the optional post-deploy seeding script.
	SeedScript string `yaml:"seedScript" env:"DSCTL_SEED_SCRIPT"`
	// IngressManifest is the ingress-nginx controller manifest applied to the cluster.
	IngressManifest string `yaml:"ingressManifest" env:"DSCTL_INGRESS_MANIFEST"`
	// Images lists prebuilt image references loaded into the cluster.
	Images []string `yaml:"images" env:"DSCTL_IMAGES"`
	// KeyResources lists workload name prefixes the deploy waits on.
	KeyResources []string `yaml:"keyResources" env:"DSCTL_KEY_RESOURCES"`
	// WaitTimeout bounds the wait for each key resource.
	WaitTimeout time.Duration `yaml:"waitTimeout" env:"DSCTL_WAIT_TIMEOUT"`
	// WaitInterval is the poll interval while waiting on key resources.
	WaitInterval time.Duration `yaml:"waitInterval" env:"DSCTL_WAIT_INTERVAL"`
}

// Default returns the built-in configuration for the standard local
// dataspace layout.
func Default() Config {
	return Config{
		ClusterName:     "mvd",
		Namespace:       "mvd",
		ClusterConfig:   "deployment/kind.config.yaml",
		InfraDir:        "deployment",
		SeedScript:      "seed-k8s.sh",
		IngressManifest: "https://raw.githubusercontent.com/kubernetes/ingress-nginx/controller-v1.10.0/deploy/static/provider/kind/deploy.yaml",
		Images: []string{
			"controlplane:latest",
			"dataplane:latest",
			"identity-hub:latest",
			"catalog-server:latest",
			"issuerservice:latest",
		},
		KeyResources: []string{
			"consumer-controlplane",
			"consumer-identityhub",
			"provider-qna-controlplane",
			"provider-manufacturing-controlplane",
			"provider-identityhub",
			"issuerservice",
		},
		WaitTimeout:  5 * time.Minute,
		WaitInterval: 5 * time.Second,
	}
}

// Load builds the effective configuration. A missing file at the default
// path is fine; an explicitly requested file that does not exist is an
// error so typos do not silently deploy the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		// Defaults only.
	default:
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	// .env is optional; ignore its absence.
	_ = godotenv.Load()

	if err := envparse.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse DSCTL_* environment: %w", err)
	}

	return cfg, nil
}
