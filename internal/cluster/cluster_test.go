package cluster

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataspace-k8s/dsctl/internal/execx"
	"github.com/dataspace-k8s/dsctl/internal/execx/execxtest"
	"github.com/dataspace-k8s/dsctl/internal/logging"
	"github.com/dataspace-k8s/dsctl/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return logging.NewLogger(io.Discard, logging.LevelError)
}

func TestManagerExists(t *testing.T) {
	tests := []struct {
		name     string
		result   execx.Result
		expected bool
	}{
		{name: "cluster listed", result: execx.Result{Stdout: "other\nmvd\n"}, expected: true},
		{name: "cluster not listed", result: execx.Result{Stdout: "other\n"}, expected: false},
		{name: "no clusters", result: execx.Result{Stdout: ""}, expected: false},
		{name: "kind failed", result: execx.Result{ExitCode: 1}, expected: false},
		{name: "prefix is not a match", result: execx.Result{Stdout: "mvd-staging\n"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := execxtest.NewRunner().Stub("kind get clusters", tt.result)
			mgr := NewManager(runner, discardLogger(), "mvd")
			assert.Equal(t, tt.expected, mgr.Exists(context.Background()))
		})
	}
}

func TestManagerCreatePassesTopologyConfig(t *testing.T) {
	runner := execxtest.NewRunner()
	mgr := NewManager(runner, discardLogger(), "mvd")

	require.NoError(t, mgr.Create(context.Background(), "deployment/kind.config.yaml"))
	require.Len(t, runner.Calls(), 1)
	assert.Equal(t, "kind create cluster --name mvd --config deployment/kind.config.yaml", runner.Calls()[0].Line())
}

func TestManagerCreateFailsOnNonZeroExit(t *testing.T) {
	runner := execxtest.NewRunner().
		Stub("kind create cluster", execx.Result{ExitCode: 1})
	mgr := NewManager(runner, discardLogger(), "mvd")

	err := mgr.Create(context.Background(), "kind.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 1")
}

func TestManagerNodeContainers(t *testing.T) {
	runner := execxtest.NewRunner().
		Stub("docker ps -aq --filter name=mvd", execx.Result{Stdout: "abc123\ndef456\n"})
	mgr := NewManager(runner, discardLogger(), "mvd")

	assert.Equal(t, []string{"abc123", "def456"}, mgr.NodeContainers(context.Background()))
}

func TestManagerNodeContainersEmptyWhenNoneMatch(t *testing.T) {
	runner := execxtest.NewRunner()
	mgr := NewManager(runner, discardLogger(), "mvd")

	assert.Empty(t, mgr.NodeContainers(context.Background()))
}

func TestImageLoaderSkipsAbsentImages(t *testing.T) {
	runner := execxtest.NewRunner().
		Stub("docker image inspect controlplane:latest", execx.Result{ExitCode: 1})
	loader := NewImageLoader(runner, discardLogger(), "mvd")
	sum := &pipeline.Summary{}

	err := loader.LoadAll(context.Background(), []string{"controlplane:latest"}, sum)

	require.NoError(t, err, "absent images are never fatal")
	require.Len(t, sum.Entries(), 1)
	assert.Equal(t, pipeline.OutcomeSkipped, sum.Entries()[0].Outcome)
	assert.Equal(t, "not found locally", sum.Entries()[0].Note)
	for _, line := range runner.CallLines() {
		assert.NotContains(t, line, "kind load", "absent image must not be imported")
	}
}

func TestImageLoaderNeverAborts(t *testing.T) {
	// img-a is absent, img-b's import fails, img-c imports fine.
	runner := execxtest.NewRunner().
		Stub("docker image inspect img-a", execx.Result{ExitCode: 1}).
		Stub("kind load docker-image img-b", execx.Result{ExitCode: 1})
	loader := NewImageLoader(runner, discardLogger(), "mvd")
	sum := &pipeline.Summary{}

	err := loader.LoadAll(context.Background(), []string{"img-a", "img-b", "img-c"}, sum)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 image import(s) failed")

	require.Len(t, sum.Entries(), 3)
	assert.Equal(t, pipeline.OutcomeSkipped, sum.Entries()[0].Outcome)
	assert.Equal(t, pipeline.OutcomeWarned, sum.Entries()[1].Outcome)
	assert.Equal(t, pipeline.OutcomeOk, sum.Entries()[2].Outcome)

	assert.Contains(t, runner.CallLines(), "kind load docker-image img-c --name mvd",
		"remaining images are still attempted after a failure")
}

func TestRemoveContainerReportsFailure(t *testing.T) {
	runner := execxtest.NewRunner().
		Stub("docker rm -f stuck", execx.Result{ExitCode: 1, Stderr: "container is locked"})
	mgr := NewManager(runner, discardLogger(), "mvd")

	err := mgr.RemoveContainer(context.Background(), "stuck")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container is locked")
}

func TestRemoveContainerPropagatesLaunchError(t *testing.T) {
	launchErr := &execx.Error{Program: "docker", Err: errors.New("not found")}
	runner := execxtest.NewRunner().StubError("docker rm -f abc", launchErr)
	mgr := NewManager(runner, discardLogger(), "mvd")

	err := mgr.RemoveContainer(context.Background(), "abc")
	require.ErrorIs(t, err, launchErr)
}
