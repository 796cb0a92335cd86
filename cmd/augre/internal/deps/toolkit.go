// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package deps

import (
	"context"
	"net/http"

	"github.com/AleutianAI/augre/cmd/augre/internal/download"
	"github.com/AleutianAI/augre/cmd/augre/internal/platform"
	"github.com/AleutianAI/augre/cmd/augre/internal/process"
	"github.com/AleutianAI/augre/cmd/augre/internal/readiness"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
	"github.com/AleutianAI/augre/pkg/logging"
)

// HTTPDoer issues health probe requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Toolkit holds the collaborators every dependency is built from.
//
// # Description
//
// Production code fills it from real implementations in one place; tests
// swap in process.MockRunner, a fake Fetcher and an httptest client.
// Zero-valued fields fall back to working defaults where one exists.
type Toolkit struct {
	Runner  process.Runner
	Fetcher download.Fetcher
	HTTP    HTTPDoer
	Host    platform.Host
	Logger  *logging.Logger

	// Poller waits for the inference server after compose up. A zero
	// value means readiness.Default().
	Poller readiness.Poller

	// OnWait is told about each failed readiness attempt.
	OnWait readiness.RetryFunc
}

func (tk Toolkit) logger() *logging.Logger {
	if tk.Logger == nil {
		return logging.Discard()
	}
	return tk.Logger
}

func (tk Toolkit) httpDoer() HTTPDoer {
	if tk.HTTP == nil {
		return &http.Client{Timeout: util.HealthProbeTimeout}
	}
	return tk.HTTP
}

func (tk Toolkit) poller() readiness.Poller {
	if tk.Poller.Attempts == 0 && tk.Poller.Interval == 0 {
		p := readiness.Default()
		p.OnAttempt = tk.Poller.OnAttempt
		return p
	}
	return tk.Poller
}

// runChecked runs a command with inherited stdio and turns a non-zero
// exit into a *util.CommandError. With elevate set the command goes
// through host.Elevate.
func runChecked(ctx context.Context, r process.Runner, host platform.Host, elevate bool, program string, args ...string) error {
	if elevate {
		program, args = host.Elevate(program, args)
	}
	res, err := r.Run(ctx, program, args, false)
	if err != nil {
		return err
	}
	return res.Check()
}
