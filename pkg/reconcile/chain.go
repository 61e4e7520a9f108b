package reconcile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/logging"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// Labeled is one snapshot of a chain with its period label. A non-nil Err
// marks a snapshot that could not be loaded; both steps touching it fail
// with that error.
type Labeled struct {
	Snapshot *snapshot.Snapshot
	Label    string
	Err      error
}

// Step is the outcome of one consecutive pair of a chain.
type Step struct {
	Index int    // position of the pair, 0 for (S0, S1)
	From  string // label of the older snapshot
	Label string // label of the newer snapshot, stamped on the log
	Log   *changelog.Log
	Err   error
}

// OK reports whether the step produced a log.
func (s Step) OK() bool { return s.Err == nil && s.Log != nil }

// ChainResult holds every step in chain order.
type ChainResult struct {
	Steps []Step
}

// Logs returns the logs of the successful steps in chain order.
func (c *ChainResult) Logs() []*changelog.Log {
	logs := []*changelog.Log{}
	for _, s := range c.Steps {
		if s.OK() {
			logs = append(logs, s.Log)
		}
	}
	return logs
}

// Succeeded returns the steps that produced a log.
func (c *ChainResult) Succeeded() []Step {
	out := []Step{}
	for _, s := range c.Steps {
		if s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// Failed returns the steps that did not.
func (c *ChainResult) Failed() []Step {
	out := []Step{}
	for _, s := range c.Steps {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// Err joins the step errors, or returns nil when every step succeeded.
func (c *ChainResult) Err() error {
	var errs []error
	for _, s := range c.Steps {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s -> %s): %w", s.Index, s.From, s.Label, s.Err))
		}
	}
	return errors.Join(errs...)
}

// ReconcileChain runs every consecutive pair. Steps run on up to
// chainWorkers goroutines. Once ctx is done no new step starts and the
// remaining steps report the context error.
func (r *reconciler) ReconcileChain(ctx context.Context, chain []Labeled) *ChainResult {
	result := &ChainResult{Steps: []Step{}}
	if len(chain) < 2 {
		return result
	}

	logger := logging.FromContext(ctx)
	result.Steps = make([]Step, len(chain)-1)
	for i := range result.Steps {
		result.Steps[i] = Step{Index: i, From: chain[i].Label, Label: chain[i+1].Label}
	}

	limit := r.chainWorkers
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range result.Steps {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(result.Steps); j++ {
				result.Steps[j].Err = err
			}
			break
		}
		g.Go(func() error {
			step := &result.Steps[i]
			stepCtx := logging.WithField(ctx, "step", i)
			switch {
			case chain[i].Err != nil:
				step.Err = chain[i].Err
			case chain[i+1].Err != nil:
				step.Err = chain[i+1].Err
			default:
				step.Log, step.Err = r.Reconcile(stepCtx, chain[i].Snapshot, chain[i+1].Snapshot, step.Label)
			}
			if step.Err != nil {
				stepCtx = logging.WithError(logging.WithLabel(stepCtx, step.Label), step.Err)
				logging.FromContext(stepCtx).Warn().Msg("Chain step failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Debug().
		Int("steps", len(result.Steps)).
		Int("failed", len(result.Failed())).
		Msg("Reconciled chain")
	return result
}
