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
	"fmt"
	"time"

	"github.com/AleutianAI/augre/cmd/augre/internal/platform"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
	"github.com/AleutianAI/augre/pkg/logging"
)

// Confirmer asks the user a yes/no question. ux.Prompter satisfies it.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Reporter receives user-facing progress lines. ux.Printer satisfies it.
type Reporter interface {
	Step(text string)
	Success(text string)
	Warning(text string)
	Info(text string)
}

// Recorder observes the outcome of every orchestrated operation.
type Recorder interface {
	ObserveDependency(name, operation, outcome string, elapsed time.Duration)
}

// Operation outcomes passed to Recorder.
const (
	OutcomePresent     = "present"
	OutcomeInstalled   = "installed"
	OutcomeAbsent      = "absent"
	OutcomeRemoved     = "removed"
	OutcomeDeclined    = "declined"
	OutcomeUnsupported = "unsupported"
	OutcomeFailed      = "failed"
)

type nopRecorder struct{}

func (nopRecorder) ObserveDependency(string, string, string, time.Duration) {}

// Orchestrator drives dependencies through probe, confirm, install and
// uninstall.
//
// # Description
//
// The orchestrator owns the control flow that every dependency shares; the
// dependencies only know how to probe and change themselves. It holds no
// per-dependency state, so one instance serves a whole run.
//
// # Thread Safety
//
// Safe for concurrent use if the Confirmer and Reporter are. The CLI calls
// it sequentially.
type Orchestrator struct {
	host      platform.Host
	confirmer Confirmer
	reporter  Reporter
	logger    *logging.Logger
	recorder  Recorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// NewOrchestrator creates an Orchestrator for host.
func NewOrchestrator(host platform.Host, confirmer Confirmer, reporter Reporter, logger *logging.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	o := &Orchestrator{
		host:      host,
		confirmer: confirmer,
		reporter:  reporter,
		logger:    logger,
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ensure makes d present.
//
// # Description
//
//  1. Probe. A probe error is returned as is, wrapped with the name.
//  2. Present: report and return nil.
//  3. Absent and confirm set: ask. A refusal returns ErrUserDeclined.
//  4. Platform-restricted and unsupported here: ErrUnsupportedPlatform.
//  5. Install. A failure is wrapped with the name.
//  6. Report success.
//
// Calling Ensure twice installs at most once: the second probe sees the
// dependency present.
//
// # Inputs
//
//   - ctx: Cancels probes and installs.
//   - d: Dependency to ensure.
//   - confirm: Ask before installing. false auto-approves.
//
// # Outputs
//
//   - error: *util.DependencyError wrapping the cause, or nil.
func (o *Orchestrator) Ensure(ctx context.Context, d Dependency, confirm bool) error {
	name := d.Name()
	start := time.Now()
	log := o.logger.With("dependency", name)

	present, err := d.Probe(ctx)
	if err != nil {
		o.recorder.ObserveDependency(name, "ensure", OutcomeFailed, time.Since(start))
		return util.WrapDependency(name, "probe", err)
	}
	if present {
		log.Debug("dependency present")
		o.reporter.Success(fmt.Sprintf("%s is present", name))
		o.recorder.ObserveDependency(name, "ensure", OutcomePresent, time.Since(start))
		return nil
	}

	log.Info("dependency absent")
	o.reporter.Step(fmt.Sprintf("%s is not present", name))

	if confirm {
		ok, err := o.confirmer.Confirm(ctx, fmt.Sprintf("Install %s?", name))
		if err != nil {
			return util.WrapDependency(name, "install", err)
		}
		if !ok {
			log.Info("install declined")
			o.recorder.ObserveDependency(name, "ensure", OutcomeDeclined, time.Since(start))
			return util.WrapDependency(name, "install", util.ErrUserDeclined)
		}
	}

	if r, ok := d.(PlatformRestricted); ok && !r.SupportedOn(o.host) {
		o.reporter.Warning(fmt.Sprintf("please install %s manually on %s", name, o.host.OS))
		o.recorder.ObserveDependency(name, "ensure", OutcomeUnsupported, time.Since(start))
		return util.WrapDependency(name, "install",
			fmt.Errorf("%w: automatic install is not available on %s", util.ErrUnsupportedPlatform, o.host.OS))
	}

	o.reporter.Step(fmt.Sprintf("installing %s", name))
	if err := d.Install(ctx); err != nil {
		log.Error("install failed", "error", err)
		o.recorder.ObserveDependency(name, "ensure", OutcomeFailed, time.Since(start))
		return util.WrapDependency(name, "install", err)
	}

	log.Info("dependency installed", "elapsed", time.Since(start).String())
	o.reporter.Success(fmt.Sprintf("%s installed", name))
	o.recorder.ObserveDependency(name, "ensure", OutcomeInstalled, time.Since(start))
	return nil
}

// EnsureAll ensures ds in order and stops at the first failure. Nothing
// already installed is rolled back.
func (o *Orchestrator) EnsureAll(ctx context.Context, ds []Dependency, confirm bool) error {
	for _, d := range ds {
		if err := o.Ensure(ctx, d, confirm); err != nil {
			return err
		}
	}
	return nil
}

// Remove tears d down if it is present.
//
// # Description
//
// An absent dependency is a successful no-op. With confirm set the user
// is asked first; a refusal skips the teardown and returns nil.
func (o *Orchestrator) Remove(ctx context.Context, d RemovableDependency, confirm bool) error {
	name := d.Name()
	start := time.Now()
	log := o.logger.With("dependency", name)

	present, err := d.Probe(ctx)
	if err != nil {
		o.recorder.ObserveDependency(name, "remove", OutcomeFailed, time.Since(start))
		return util.WrapDependency(name, "probe", err)
	}
	if !present {
		log.Debug("nothing to remove")
		o.reporter.Info(fmt.Sprintf("%s is not running", name))
		o.recorder.ObserveDependency(name, "remove", OutcomeAbsent, time.Since(start))
		return nil
	}

	if confirm {
		ok, err := o.confirmer.Confirm(ctx, fmt.Sprintf("Remove %s?", name))
		if err != nil {
			return util.WrapDependency(name, "uninstall", err)
		}
		if !ok {
			o.reporter.Info(fmt.Sprintf("left %s running", name))
			o.recorder.ObserveDependency(name, "remove", OutcomeDeclined, time.Since(start))
			return nil
		}
	}

	o.reporter.Step(fmt.Sprintf("removing %s", name))
	if err := d.Uninstall(ctx); err != nil {
		o.recorder.ObserveDependency(name, "remove", OutcomeFailed, time.Since(start))
		return util.WrapDependency(name, "uninstall", err)
	}

	log.Info("dependency removed")
	o.reporter.Success(fmt.Sprintf("%s removed", name))
	o.recorder.ObserveDependency(name, "remove", OutcomeRemoved, time.Since(start))
	return nil
}

// RemoveAll removes ds in order and stops at the first failure.
func (o *Orchestrator) RemoveAll(ctx context.Context, ds []RemovableDependency, confirm bool) error {
	for _, d := range ds {
		if err := o.Remove(ctx, d, confirm); err != nil {
			return err
		}
	}
	return nil
}
