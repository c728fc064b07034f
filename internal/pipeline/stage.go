// Package pipeline contains the stage sequencer and the readiness poller
// shared by the deploy and teardown pipelines.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// Outcome classifies how a stage (or a sub-step within one) ended.
type Outcome string

const (
	// OutcomeOk means the stage ran and succeeded.
	OutcomeOk Outcome = "ok"
	// OutcomeSkipped means the skip predicate found the effect already present.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeWarned means the stage failed under a warn-continue policy.
	OutcomeWarned Outcome = "warned"
	// OutcomeFailed means the stage failed under a fatal policy.
	OutcomeFailed Outcome = "failed"
)

// FailurePolicy decides whether a stage failure halts the pipeline.
type FailurePolicy int

const (
	// Fatal aborts the pipeline on stage failure.
	Fatal FailurePolicy = iota
	// WarnContinue records the failure and moves to the next stage.
	WarnContinue
)

// Entry is one line of the end-of-run summary.
type Entry struct {
	Stage   string
	Outcome Outcome
	Note    string
}

// Summary accumulates stage outcomes for the operator. It never drives
// control flow.
type Summary struct {
	entries []Entry
}

// Add appends an entry to the summary.
func (s *Summary) Add(stage string, outcome Outcome, note string) {
	s.entries = append(s.entries, Entry{Stage: stage, Outcome: outcome, Note: note})
}

// Entries returns the accumulated entries in order.
func (s *Summary) Entries() []Entry {
	return s.entries
}

// Count returns how many entries carry the given outcome.
func (s *Summary) Count(outcome Outcome) int {
	n := 0
	for _, e := range s.entries {
		if e.Outcome == outcome {
			n++
		}
	}
	return n
}

// Log renders the summary through the logger, one record per entry.
func (s *Summary) Log(logger *slog.Logger) {
	for _, e := range s.entries {
		args := []any{"stage", e.Stage, "outcome", string(e.Outcome)}
		if e.Note != "" {
			args = append(args, "note", e.Note)
		}
		switch e.Outcome {
		case OutcomeWarned:
			logger.Warn("summary", args...)
		case OutcomeFailed:
			logger.Error("summary", args...)
		default:
			logger.Info("summary", args...)
		}
	}
}

// Stage is a named unit of pipeline work. Skip is the stage's idempotency
// check: when it reports true the action is not invoked and the stage is
// recorded as skipped with the returned reason.
type Stage struct {
	Name   string
	Skip   func(ctx context.Context) (bool, string)
	Action func(ctx context.Context, sum *Summary) error
	Policy FailurePolicy
}

// Sequencer executes an ordered list of stages. Data flows strictly
// forward; no stage re-enters an earlier one.
type Sequencer struct {
	logger *slog.Logger
}

// NewSequencer constructs a Sequencer bound to the provided logger.
func NewSequencer(logger *slog.Logger) *Sequencer {
	return &Sequencer{logger: logger}
}

// Run executes stages in order, recording an outcome per stage into sum.
// A failure under the Fatal policy aborts immediately and is returned with
// the responsible stage named; warn-continue failures are recorded and the
// run proceeds. The summary is populated either way.
func (q *Sequencer) Run(ctx context.Context, sum *Summary, stages []Stage) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		if st.Skip != nil {
			if skip, reason := st.Skip(ctx); skip {
				q.logger.Info("stage skipped", "stage", st.Name, "reason", reason)
				sum.Add(st.Name, OutcomeSkipped, reason)
				continue
			}
		}

		q.logger.Info("stage starting", "stage", st.Name)
		if err := st.Action(ctx, sum); err != nil {
			if st.Policy == Fatal {
				q.logger.Error("stage failed", "stage", st.Name, "error", err)
				sum.Add(st.Name, OutcomeFailed, err.Error())
				return fmt.Errorf("stage %q: %w", st.Name, err)
			}
			q.logger.Warn("stage degraded; continuing", "stage", st.Name, "error", err)
			sum.Add(st.Name, OutcomeWarned, err.Error())
			continue
		}

		q.logger.Info("stage completed", "stage", st.Name)
		sum.Add(st.Name, OutcomeOk, "")
	}
	return nil
}
