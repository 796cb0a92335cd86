// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package util

import "time"

const (
	// MinHTTPTimeout is the floor for any HTTP client timeout.
	MinHTTPTimeout = 1 * time.Second

	// ModelRequestTimeout bounds one chat-completion round trip.
	ModelRequestTimeout = 120 * time.Second

	// HealthProbeTimeout bounds one readiness or presence probe.
	HealthProbeTimeout = 5 * time.Second

	// ReadinessInterval is the spacing between readiness attempts.
	ReadinessInterval = 10 * time.Second

	// ReadinessAttempts is the number of readiness probes before giving up.
	ReadinessAttempts = 10

	// DownloadDialTimeout bounds connecting to a download host.
	DownloadDialTimeout = 30 * time.Second

	// DownloadHeaderTimeout bounds waiting for response headers. The body
	// itself is unbounded so multi-gigabyte artifacts can finish.
	DownloadHeaderTimeout = 60 * time.Second
)

// EnforceMinTimeout returns minimum when requested is zero, negative or
// below it, otherwise requested.
//
// # Example
//
//	client := &http.Client{Timeout: util.EnforceMinTimeout(cfg.Timeout, util.MinHTTPTimeout)}
func EnforceMinTimeout(requested, minimum time.Duration) time.Duration {
	if requested <= 0 || requested < minimum {
		return minimum
	}
	return requested
}

// EnforceDefaultTimeout returns defaultVal when requested is zero or
// negative.
func EnforceDefaultTimeout(requested, defaultVal time.Duration) time.Duration {
	if requested <= 0 {
		return defaultVal
	}
	return requested
}
