package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure worth another attempt.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Backoff configures [Retry].
type Backoff struct {
	Attempts int
	Delay    time.Duration // before the second attempt; doubles after each
	MaxDelay time.Duration // 0 means uncapped
}

// DefaultBackoff is three attempts starting at 500ms.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempts are used up. The unwrapped cause of the last failure is
// returned. Waiting between attempts stops early when ctx is done.
func Retry(ctx context.Context, b Backoff, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var err error
	for i := range attempts {
		if err = fn(); err == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(err, &re) {
			return err
		}
		err = re.Err
		if i == attempts-1 {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return err
}
