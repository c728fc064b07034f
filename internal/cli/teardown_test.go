package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataspace-k8s/dsctl/internal/cluster"
	"github.com/dataspace-k8s/dsctl/internal/execx"
	"github.com/dataspace-k8s/dsctl/internal/execx/execxtest"
	"github.com/dataspace-k8s/dsctl/internal/infra"
	"github.com/dataspace-k8s/dsctl/internal/pipeline"
)

func TestConfirmTeardown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "lowercase y", input: "y\n", expected: true},
		{name: "yes", input: "yes\n", expected: true},
		{name: "uppercase Y", input: "Y\n", expected: true},
		{name: "no", input: "no\n", expected: false},
		{name: "empty line defaults to no", input: "\n", expected: false},
		{name: "closed stdin", input: "", expected: false},
		{name: "arbitrary text", input: "sure why not\n", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			got := confirmTeardown(strings.NewReader(tt.input), &out, "mvd")
			assert.Equal(t, tt.expected, got)
			assert.Contains(t, out.String(), `"mvd"`)
		})
	}
}

func TestTeardownIsIdempotentOnCleanEnvironment(t *testing.T) {
	// Nothing left: no containers, no cluster, no infra directory.
	runner := execxtest.NewRunner().
		Stub("docker ps -aq", execx.Result{Stdout: ""}).
		Stub("kind get clusters", execx.Result{Stdout: ""})

	mgr := cluster.NewManager(runner, discardLogger(), "mvd")
	applier := infra.NewApplier(runner, discardLogger(), filepath.Join(t.TempDir(), "missing"))
	seq := pipeline.NewSequencer(discardLogger())

	for run := 0; run < 2; run++ {
		sum := &pipeline.Summary{}
		err := seq.Run(context.Background(), sum, teardownStages(mgr, applier))
		require.NoError(t, err, "run %d", run)

		require.Len(t, sum.Entries(), 3)
		for _, e := range sum.Entries() {
			assert.Equal(t, pipeline.OutcomeSkipped, e.Outcome)
			assert.Equal(t, "not found", e.Note)
		}
	}

	for _, line := range runner.CallLines() {
		assert.NotContains(t, line, "docker rm")
		assert.NotContains(t, line, "kind delete")
	}
}

func TestTeardownContinuesPastStuckContainer(t *testing.T) {
	infraDir := t.TempDir()

	runner := execxtest.NewRunner().
		Stub("docker ps -aq --filter name=mvd", execx.Result{Stdout: "stuck\nfine\n"}).
		Stub("docker rm -f stuck", execx.Result{ExitCode: 1, Stderr: "device busy"}).
		Stub("kind get clusters", execx.Result{Stdout: "mvd\n"})

	mgr := cluster.NewManager(runner, discardLogger(), "mvd")
	applier := infra.NewApplier(runner, discardLogger(), infraDir)
	seq := pipeline.NewSequencer(discardLogger())

	sum := &pipeline.Summary{}
	err := seq.Run(context.Background(), sum, teardownStages(mgr, applier))
	require.NoError(t, err, "teardown stages are never fatal")

	assert.Equal(t, pipeline.OutcomeWarned, findEntry(t, sum, "remove-container stuck").Outcome)
	assert.Equal(t, pipeline.OutcomeOk, findEntry(t, sum, "remove-container fine").Outcome)
	assert.Equal(t, pipeline.OutcomeWarned, findEntry(t, sum, "remove-containers").Outcome)
	assert.Equal(t, pipeline.OutcomeOk, findEntry(t, sum, "delete-cluster").Outcome)
	assert.Equal(t, pipeline.OutcomeOk, findEntry(t, sum, "clean-infra-state").Outcome)

	assert.Contains(t, runner.CallLines(), "docker rm -f fine",
		"removal continues past a stuck container")
	assert.Contains(t, runner.CallLines(), "kind delete cluster --name mvd")
}
