// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"math/rand"
	"time"
)

// Backoff describes how often and how patiently an operation is retried.
type Backoff struct {
	Attempts int           // Total tries including the first
	Base     time.Duration // Wait before the second try
	Cap      time.Duration // Upper bound on a single wait, zero for none
	Factor   float64       // Growth of the wait per try
	Jitter   bool          // Add up to a quarter of the wait at random
}

// LockBackoff is used for local contention such as a report lock held by
// another process.
func LockBackoff() Backoff {
	return Backoff{Attempts: 6, Base: 50 * time.Millisecond, Cap: 2 * time.Second, Factor: 2, Jitter: true}
}

// DatabaseBackoff is used for SQLite busy errors on the history ledger.
func DatabaseBackoff() Backoff {
	return Backoff{Attempts: 4, Base: 100 * time.Millisecond, Cap: time.Second, Factor: 2, Jitter: true}
}

// wait returns the pause before try n, counting the first retry as 1.
func (b Backoff) wait(n int) time.Duration {
	d := float64(b.Base)
	for i := 1; i < n; i++ {
		d *= b.Factor
	}
	if b.Jitter {
		d += d * 0.25 * rand.Float64()
	}
	w := time.Duration(d)
	if b.Cap > 0 && w > b.Cap {
		w = b.Cap
	}
	return w
}

// Retry runs op until it succeeds, returns an error that does not classify
// as retryable, or the attempts run out. The last error is returned.
func Retry(ctx context.Context, b Backoff, op func(ctx context.Context) error) error {
	tries := max(b.Attempts, 1)
	var err error
	for n := 0; n < tries; n++ {
		if n > 0 {
			timer := time.NewTimer(b.wait(n))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err = op(ctx); err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

// RetryValue is Retry for operations that produce a value.
func RetryValue[T any](ctx context.Context, b Backoff, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Retry(ctx, b, func(ctx context.Context) error {
		v, err := op(ctx)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}

// IsRetryable reports whether an error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).IsRetryable()
}
