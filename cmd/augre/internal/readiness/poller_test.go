// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/augre/cmd/augre/internal/util"
)

// countingProbe becomes ready on call number readyOn (0 = never).
func countingProbe(readyOn int, calls *int) ProbeFunc {
	return func(context.Context) (bool, error) {
		*calls++
		return readyOn > 0 && *calls >= readyOn, nil
	}
}

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, 10, p.Attempts)
	assert.Equal(t, 10*time.Second, p.Interval)
}

func TestWait_SucceedsOnThirdAttempt(t *testing.T) {
	calls := 0
	var retries []int

	err := Poller{Attempts: 10}.Wait(context.Background(), countingProbe(3, &calls), func(n, max int) {
		assert.Equal(t, 10, max)
		retries = append(retries, n)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestWait_ImmediateSuccessDoesNotWait(t *testing.T) {
	calls := 0
	start := time.Now()

	err := Poller{Attempts: 10, Interval: time.Hour}.Wait(context.Background(), countingProbe(1, &calls), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWait_ExhaustsAfterTenAttempts(t *testing.T) {
	calls := 0
	retries := 0

	err := Poller{Attempts: 10}.Wait(context.Background(), countingProbe(0, &calls), func(int, int) { retries++ })

	assert.ErrorIs(t, err, util.ErrStartupTimeout)
	assert.Equal(t, 10, calls)
	assert.Equal(t, 9, retries)
}

func TestWait_ProbeErrorAborts(t *testing.T) {
	calls := 0
	boom := errors.New("missing cria_port")

	err := Poller{Attempts: 10}.Wait(context.Background(), func(context.Context) (bool, error) {
		calls++
		return false, boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWait_SpacesAttempts(t *testing.T) {
	calls := 0
	start := time.Now()

	err := Poller{Attempts: 3, Interval: 20 * time.Millisecond}.Wait(context.Background(), countingProbe(0, &calls), nil)

	assert.ErrorIs(t, err, util.ErrStartupTimeout)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWait_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(30*time.Millisecond, cancel)
	calls := 0

	err := Poller{Attempts: 10, Interval: time.Hour}.Wait(ctx, countingProbe(0, &calls), nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, util.ErrStartupTimeout)
	assert.Equal(t, 1, calls)
}

func TestWait_DeadlineBeforeNextAttemptTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	calls := 0

	err := Poller{Attempts: 10, Interval: time.Second}.Wait(ctx, countingProbe(0, &calls), nil)

	assert.ErrorIs(t, err, util.ErrStartupTimeout)
	assert.ErrorContains(t, err, "deadline before attempt 2 of 10")
	assert.Equal(t, 1, calls)
}

func TestWait_OnAttemptObservesResults(t *testing.T) {
	calls := 0
	var seen []bool
	p := Poller{Attempts: 5, OnAttempt: func(ready bool) { seen = append(seen, ready) }}

	require.NoError(t, p.Wait(context.Background(), countingProbe(2, &calls), nil))
	assert.Equal(t, []bool{false, true}, seen)
}

func TestWait_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	err := Poller{}.Wait(context.Background(), countingProbe(0, &calls), nil)

	assert.ErrorIs(t, err, util.ErrStartupTimeout)
	assert.Equal(t, 1, calls)
}
