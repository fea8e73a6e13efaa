package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/matzehuels/starmap/pkg/errors"
)

// ErrUnavailable reports a Redis or MongoDB backend that could not be
// reached. It carries errors.ErrCodeNetwork, which the API answers with 503.
var ErrUnavailable = errors.New(errors.ErrCodeNetwork, "cache backend unavailable")

// unavailable tags a driver failure with ErrUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

// transientError marks a failure worth retrying: a dropped connection or a
// server that did not answer in time.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func isTransient(err error) bool {
	var te *transientError
	return stderrors.As(err, &te)
}

// Backoff bounds the retries of a remote cache operation.
type Backoff struct {
	// Attempts is the total number of tries. Values below 1 mean one try.
	Attempts int
	// Delay is the pause before the second try; it doubles after each one.
	Delay time.Duration
}

// DefaultBackoff keeps a cache lookup well below a render's cost: three
// tries, 50ms then 100ms apart.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 50 * time.Millisecond}

// Do runs fn until it succeeds, fails with a non-transient error or runs out
// of attempts. The last error is returned with its transient mark removed.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	var err error
	for i := 0; i < max(b.Attempts, 1); i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
		if err = fn(); err == nil || !isTransient(err) {
			return err
		}
	}
	var te *transientError
	if stderrors.As(err, &te) {
		return te.err
	}
	return err
}
