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

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollSucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), time.Millisecond, 5, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPollSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), time.Millisecond, 5, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollExhaustsBudget(t *testing.T) {
	calls := 0
	cause := errors.New("path not live")
	err := Poll(context.Background(), time.Millisecond, 4, func() error {
		calls++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 4, te.Attempts)
	assert.Equal(t, time.Millisecond, te.Interval)
	assert.ErrorIs(t, err, cause)
}

func TestPollHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Poll(ctx, time.Minute, 10, func() error {
		return errors.New("never converges")
	})
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpoGivesUpAfterMaxTime(t *testing.T) {
	start := time.Now()
	err := Expo(func() error { return errors.New("always failing") }, time.Millisecond, 50*time.Millisecond)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
