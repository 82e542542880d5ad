// ABOUTME: Bounded run polling with exponential backoff and context cancellation.
// ABOUTME: Provides PollPolicy and WaitForRun, the only unbounded-duration operation in the pipeline.
package sandbox

import (
	"context"
	"fmt"
	"time"
)

// PollPolicy configures how WaitForRun polls for run completion. The delay
// grows from BaseInterval by Multiplier up to MaxInterval; Budget bounds the
// total wait.
type PollPolicy struct {
	BaseInterval time.Duration
	MaxInterval  time.Duration
	Multiplier   float64
	Budget       time.Duration
}

// DefaultPollPolicy returns the polling defaults: 500ms initial interval
// growing 1.5x up to 5s, with a 5 minute overall budget.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		BaseInterval: 500 * time.Millisecond,
		MaxInterval:  5 * time.Second,
		Multiplier:   1.5,
		Budget:       5 * time.Minute,
	}
}

// WaitForRun polls the backend until the run reaches a terminal state, the
// policy budget is exhausted, or the context is cancelled. It returns the
// terminal state on success.
func WaitForRun(ctx context.Context, backend Backend, threadID, runID string, policy PollPolicy) (RunState, error) {
	if policy.BaseInterval <= 0 {
		policy = DefaultPollPolicy()
	}

	if policy.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Budget)
		defer cancel()
	}

	interval := policy.BaseInterval
	for {
		state, err := backend.RunStatus(ctx, threadID, runID)
		if err != nil {
			return "", fmt.Errorf("polling run %s: %w", runID, err)
		}
		if state.Terminal() {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for run %s: %w", runID, ctx.Err())
		case <-time.After(interval):
		}

		interval = time.Duration(float64(interval) * policy.Multiplier)
		if policy.MaxInterval > 0 && interval > policy.MaxInterval {
			interval = policy.MaxInterval
		}
	}
}
