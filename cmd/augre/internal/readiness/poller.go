// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package readiness waits for a freshly started service to answer.
package readiness

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/augre/cmd/augre/internal/util"
)

// ProbeFunc reports whether the service is ready. An error aborts the wait.
type ProbeFunc func(ctx context.Context) (bool, error)

// RetryFunc is told about each failed attempt before the next wait.
// attempt counts from 1.
type RetryFunc func(attempt, attempts int)

// Poller runs a bounded, fixed-interval readiness loop.
//
// # Description
//
// The first attempt is immediate and each further attempt waits Interval
// after the previous one started, so the worst-case wall time is about
// (Attempts-1) * Interval. There is no backoff.
//
// # Example
//
//	err := readiness.Default().Wait(ctx, server.Probe, func(n, max int) {
//	    spinner.UpdateMessage(fmt.Sprintf("waiting for cria_server (%d/%d)", n, max))
//	})
//	if errors.Is(err, util.ErrStartupTimeout) { ... }
type Poller struct {
	// Attempts is the maximum number of probes. Values below 1 mean 1.
	Attempts int

	// Interval spaces consecutive attempts. Zero disables pacing.
	Interval time.Duration

	// OnAttempt, when set, observes every probe result. Used for metrics.
	OnAttempt func(ready bool)
}

// Default returns the poller used for the inference server: 10 attempts,
// 10 seconds apart.
func Default() Poller {
	return Poller{Attempts: util.ReadinessAttempts, Interval: util.ReadinessInterval}
}

// Wait probes until success, failure or exhaustion.
//
// # Outputs
//
//   - error: nil on the first successful probe, the probe's error if it
//     fails, ctx.Err() on cancellation, or a wrapped ErrStartupTimeout
//     after the last unsuccessful attempt or when the context deadline
//     leaves no room for the next one.
func (p Poller) Wait(ctx context.Context, probe ProbeFunc, onRetry RetryFunc) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	limit := rate.Inf
	if p.Interval > 0 {
		limit = rate.Every(p.Interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			// The deadline falls before the next slot.
			return fmt.Errorf("%w: deadline before attempt %d of %d: %w",
				util.ErrStartupTimeout, attempt, attempts, err)
		}

		ready, err := probe(ctx)
		if err != nil {
			return err
		}
		if p.OnAttempt != nil {
			p.OnAttempt(ready)
		}
		if ready {
			return nil
		}
		if attempt < attempts && onRetry != nil {
			onRetry(attempt, attempts)
		}
	}
	return fmt.Errorf("%w: not ready after %d attempts", util.ErrStartupTimeout, attempts)
}
