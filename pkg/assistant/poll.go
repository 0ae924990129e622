package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// PollConfig bounds the wait for a run to reach a terminal status.
type PollConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Timeout         time.Duration
	// OnPending is called before each sleep, mostly for logging.
	OnPending func(run Run, next time.Duration)
}

func DefaultPollConfig() PollConfig {
	return PollConfig{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Timeout:         3 * time.Minute,
	}
}

var errRunPending = errors.New("run still pending")

// WaitForRun polls the run with exponential backoff until it completes.
// A failed, cancelled or expired run yields a *RunError (matching ErrRunFailed)
// without further polling. Exceeding cfg.Timeout yields ErrRunTimeout and
// cancelling ctx stops the wait with the context error.
func WaitForRun(ctx context.Context, client Client, threadID, runID string, cfg PollConfig) (Run, error) {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultPollConfig().InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPollConfig().Timeout
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialInterval
	policy.MaxInterval = cfg.MaxInterval
	policy.Multiplier = 2
	policy.RandomizationFactor = 0.1

	var last Run
	operation := func() (Run, error) {
		run, err := client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			// Remote errors are not retried; only the pending status is.
			return run, backoff.Permanent(fmt.Errorf("retrieve run %s: %w", runID, err))
		}
		last = run

		switch run.Status {
		case RunCompleted:
			return run, nil
		case RunFailed, RunCancelled, RunExpired:
			return run, backoff.Permanent(&RunError{RunID: run.ID, Status: run.Status, Reason: run.LastError})
		}
		return run, errRunPending
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(cfg.Timeout),
	}
	if cfg.OnPending != nil {
		opts = append(opts, backoff.WithNotify(func(_ error, next time.Duration) {
			cfg.OnPending(last, next)
		}))
	}

	run, err := backoff.Retry(ctx, operation, opts...)
	if errors.Is(err, errRunPending) {
		return last, fmt.Errorf("%w: run %s still %s after %s", ErrRunTimeout, runID, last.Status, cfg.Timeout)
	}
	if err != nil {
		return last, err
	}
	return run, nil
}
