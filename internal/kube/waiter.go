package kube

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dataspace-k8s/dsctl/internal/pipeline"
)

// Waiter awaits readiness of the deployment's key workloads, one at a time
// so that output ordering matches resource ordering.
type Waiter struct {
	client *Client
	logger *slog.Logger
}

// NewWaiter constructs a Waiter on top of the given Client.
func NewWaiter(client *Client, logger *slog.Logger) *Waiter {
	return &Waiter{client: client, logger: logger}
}

// WaitAll polls each named workload until it is Running or Completed, or
// the spec's attempt bound is exhausted. A timeout on one workload is
// recorded as a warning and never blocks waiting on the rest; the returned
// error only reports how many workloads stayed not ready.
func (w *Waiter) WaitAll(ctx context.Context, namespace string, names []string, spec pipeline.PollSpec, sum *pipeline.Summary) error {
	notReady := 0
	for _, name := range names {
		w.logger.Info("waiting for workload", "workload", name, "namespace", namespace, "timeout", spec.Timeout)
		result := pipeline.Await(ctx, func(ctx context.Context) bool {
			return w.client.WorkloadReady(ctx, namespace, name)
		}, spec)

		entry := "wait " + name
		if result == pipeline.Ready {
			w.logger.Info("workload ready", "workload", name)
			sum.Add(entry, pipeline.OutcomeOk, "")
		} else {
			w.logger.Warn("workload not ready within timeout", "workload", name, "timeout", spec.Timeout)
			sum.Add(entry, pipeline.OutcomeWarned, fmt.Sprintf("not ready within %s", spec.Timeout))
			notReady++
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if notReady > 0 {
		return fmt.Errorf("%d workload(s) not ready within %s", notReady, spec.Timeout)
	}
	return nil
}
