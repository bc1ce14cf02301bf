package booster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
)

// PollPolicy bounds a wait for on-chain state. A zero Timeout waits until
// the context is cancelled.
type PollPolicy struct {
	Interval time.Duration
	Timeout  time.Duration
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval: constants.SettlementPollInterval,
		Timeout:  constants.SettlementTimeout,
	}
}

// pollUntil evaluates cond immediately and then once per interval until it
// holds, the timeout elapses (ErrTimeout) or ctx is done.
func pollUntil(ctx context.Context, p PollPolicy, cond func(context.Context) bool) error {
	interval := p.Interval
	if interval <= 0 {
		interval = constants.SettlementPollInterval
	}

	var deadline <-chan time.Time
	if p.Timeout > 0 {
		timer := time.NewTimer(p.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if cond(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("%w after %s", ErrTimeout, p.Timeout)
		case <-ticker.C:
		}
	}
}

// RetryPolicy retries an operation with a fixed backoff. Zero MaxAttempts
// and zero MaxElapsed mean no limit.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxElapsed  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Backoff: constants.ProvisionBackoff}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent marks err as not worth retrying.
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, returns a permanent error, or the policy is
// exhausted. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	start := time.Now()
	var err error

	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = op(ctx, attempt)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}
		if p.MaxElapsed > 0 && time.Since(start)+p.Backoff > p.MaxElapsed {
			return fmt.Errorf("gave up after %s: %w", time.Since(start).Round(time.Millisecond), err)
		}

		if sleepErr := sleepCtx(ctx, p.Backoff); sleepErr != nil {
			return sleepErr
		}
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
