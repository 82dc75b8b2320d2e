/*
Copyright 2019 The Kubernetes Authors All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package retry implements wrappers to retry function calls
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"k8s.io/klog/v2"
)

// TimeoutError is returned by Poll once the attempt budget is exhausted.
// It carries the error from the final attempt so callers can report what
// the cluster actually looked like when time ran out.
type TimeoutError struct {
	Attempts int
	Interval time.Duration
	Last     error
}

func (t *TimeoutError) Error() string {
	return fmt.Sprintf("not converged after %d attempts at %s intervals: %v", t.Attempts, t.Interval, t.Last)
}

func (t *TimeoutError) Unwrap() error { return t.Last }

// Poll evaluates callback at a fixed interval until it returns nil, up to
// maxAttempts times. The budget is deliberately explicit at the call site:
// interval and attempt count encode the latency class of the operation being
// waited on. State must be re-fetched inside callback, never cached.
func Poll(ctx context.Context, interval time.Duration, maxAttempts int, callback func() error) error {
	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if last = callback(); last == nil {
			return nil
		}
		klog.Infof("poll attempt %d/%d failed, will retry after %s: %v", attempt, maxAttempts, interval, last)
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return &TimeoutError{Attempts: attempt, Interval: interval, Last: ctx.Err()}
		case <-time.After(interval):
		}
	}
	return &TimeoutError{Attempts: maxAttempts, Interval: interval, Last: last}
}

// Expo is exponential backoff retry, used for transport-level waits where
// the fixed budget of Poll would be wasteful (e.g. waiting for the REST
// server socket to accept connections after deployer start).
func Expo(callback func() error, initInterval time.Duration, maxTime time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initInterval
	b.RandomizationFactor = 0.25
	b.Multiplier = 1.5
	b.MaxElapsedTime = maxTime
	notify := func(err error, d time.Duration) {
		klog.Infof("will retry after %s: %v", d, err)
	}
	return backoff.RetryNotify(callback, b, notify)
}
