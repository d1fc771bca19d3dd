// Package retry implements the two backoff shapes the pipeline relies on:
// a fixed-delay retry for node readiness polling, and a fibonacci-delay
// retry for terraform destroy and namespace-deletion retries (spec §4.4).
// No example in the pack ships a small, dependency-free retry helper of
// this shape (onsi/gomega's Eventually and the cloud SDKs' own retryers
// solve adjacent but not equivalent problems), so this is implemented on
// the standard library and documented in DESIGN.md as a justified
// stdlib concern.
package retry

import (
	"context"
	"time"
)

// Func is a unit of retryable work. Returning (ok=true, err=nil) stops
// retrying successfully; returning a non-nil err with ok=false continues
// retrying until attempts are exhausted.
type Func func() (ok bool, err error)

// Fixed retries fn every delay, up to attempts times, stopping early on
// success or when ctx is cancelled. Used for the 60×10s node-readiness
// poll in spec §4.4.
func Fixed(ctx context.Context, attempts int, delay time.Duration, fn Func) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		ok, err := fn()
		if ok {
			return nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// Fibonacci retries fn with fibonacci-scaled delays (base, base, 2*base,
// 3*base, 5*base, ...), up to attempts times. Used for the three
// fibonacci-backed terraform-destroy retries in spec §4.4.
func Fibonacci(ctx context.Context, attempts int, base time.Duration, fn Func) error {
	a, b := time.Duration(1), time.Duration(1)
	var lastErr error
	for i := 0; i < attempts; i++ {
		ok, err := fn()
		if ok {
			return nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		delay := base * a
		a, b = b, a+b
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
