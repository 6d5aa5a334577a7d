package notification

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryNotifier retries failed deliveries with exponential backoff before
// giving the error back to the caller.
type RetryNotifier struct {
	next    Notifier
	retries uint64
	base    time.Duration
}

// NewRetryNotifier wraps next. A retries value of zero sends exactly once.
func NewRetryNotifier(next Notifier, retries int, base time.Duration) *RetryNotifier {
	if retries < 0 {
		retries = 0
	}
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &RetryNotifier{next: next, retries: uint64(retries), base: base}
}

// Send delivers message, retrying every failure until the budget is spent or ctx ends.
func (r *RetryNotifier) Send(ctx context.Context, message Message) error {
	backoff := retry.WithMaxRetries(r.retries, retry.NewExponential(r.base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := r.next.Send(ctx, message); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
