package reconcile

import (
	"context"
	"errors"
	"time"

	"email-onboarding-be/pkg/provider"

	"github.com/cenkalti/backoff/v5"
)

// hintedBackOff honors a provider's Retry-After when it asks for longer than
// the exponential schedule would wait.
type hintedBackOff struct {
	*backoff.ExponentialBackOff
	hint time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.ExponentialBackOff.NextBackOff()
	if b.hint > next && next != backoff.Stop {
		next = b.hint
	}
	b.hint = 0
	return next
}

// retriable reports whether a failed node may succeed on a later run.
func retriable(err error) bool {
	return provider.IsRetriable(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// withRetry runs op until it succeeds, fails with a terminal error, or
// MaxAttempts is reached. Only retriable ProviderErrors are retried.
func withRetry[T any](ctx context.Context, cfg Config, op func() (T, error), notify backoff.Notify) (T, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialBackoff
	exp.MaxInterval = cfg.MaxBackoff
	b := &hintedBackOff{ExponentialBackOff: exp}

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err == nil {
			return v, nil
		}
		var pe *provider.ProviderError
		if !errors.As(err, &pe) || !pe.Retriable {
			return v, backoff.Permanent(err)
		}
		b.hint = pe.RetryAfter
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
}
