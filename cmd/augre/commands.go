// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/augre/cmd/augre/internal/deps"
	"github.com/AleutianAI/augre/cmd/augre/internal/gitdiff"
	"github.com/AleutianAI/augre/cmd/augre/internal/resolver"
	"github.com/AleutianAI/augre/pkg/ux"
)

// =============================================================================
// review
// =============================================================================

func newReviewCmd(w *wiring, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review the working tree against its parent commit",
		Long: `Ensures git and the backend for the current mode, then sends
"git diff HEAD^" to the model and prints its review, grouped into likely
runtime, logic and style problems.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, w, opts, true, runReview)
		},
	}
}

func runReview(ctx context.Context, s *session) error {
	s.printer.Title("augre review")

	if err := s.orchestrator.EnsureAll(ctx, resolver.ForReview(s.plan, s.toolkit), s.confirm); err != nil {
		return err
	}

	diff, err := gitdiff.NewSource(s.toolkit.Runner).AgainstParent(ctx)
	if err != nil {
		return fmt.Errorf("reading diff: %w", err)
	}
	stats, err := gitdiff.Summarize(diff)
	if err != nil {
		// The model can still read a diff go-diff rejects.
		s.logger.Warn("could not summarize diff", "error", err)
	} else if stats.Empty() {
		s.printer.Warning("nothing to review: the diff against HEAD^ is empty")
		return nil
	} else {
		s.printer.Info("reviewing " + stats.String())
	}

	var review string
	err = ux.WithSpinner(s.printer, "waiting for review", func() error {
		var err error
		review, err = s.client().Review(ctx, diff)
		return err
	})
	if err != nil {
		return err
	}
	s.printer.Box("Review", review)
	return nil
}

// =============================================================================
// ask
// =============================================================================

func newAskCmd(w *wiring, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send a free-form prompt to the model",
		Long: `Ensures the backend for the current mode and sends the prompt
unchanged. Multiple arguments are joined with spaces.`,
		Example: `  augre ask "what does errgroup.WithContext cancel?"
  augre --mode localcpu ask explain this stack trace`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			return withSession(cmd, w, opts, true, func(ctx context.Context, s *session) error {
				return runAsk(ctx, s, prompt)
			})
		},
	}
}

func runAsk(ctx context.Context, s *session, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt is empty")
	}
	if err := s.orchestrator.EnsureAll(ctx, s.plan.Dependencies, s.confirm); err != nil {
		return err
	}

	var answer string
	err := ux.WithSpinner(s.printer, "waiting for answer", func() error {
		var err error
		answer, err = s.client().Ask(ctx, prompt)
		return err
	})
	if err != nil {
		return err
	}
	s.printer.Box("Answer", answer)
	return nil
}

// =============================================================================
// stop
// =============================================================================

func newStopCmd(w *wiring, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the local inference server",
		Long: `Tears down the dependencies of the current mode that support it.
Nothing is stopped in openai mode. Installed software and the model file
are left in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, w, opts, true, runStop)
		},
	}
}

func runStop(ctx context.Context, s *session) error {
	removable := s.plan.Removable()
	if len(removable) == 0 {
		s.printer.Info(fmt.Sprintf("nothing to stop in %s mode", s.plan.Mode))
		return nil
	}
	return s.orchestrator.RemoveAll(ctx, removable, s.confirm)
}

// =============================================================================
// prepare
// =============================================================================

func newPrepareCmd(w *wiring, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Install and start the backend without sending a request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, w, opts, true, runPrepare)
		},
	}
}

func runPrepare(ctx context.Context, s *session) error {
	if err := s.orchestrator.EnsureAll(ctx, s.plan.Dependencies, s.confirm); err != nil {
		return err
	}
	s.printer.Success(fmt.Sprintf("%s backend ready at %s", s.plan.Mode, s.plan.Endpoint))
	return nil
}

// =============================================================================
// status
// =============================================================================

func newStatusCmd(w *wiring, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which dependencies are present, without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, w, opts, false, runStatus)
		},
	}
}

type probeResult struct {
	present bool
	err     error
}

func runStatus(ctx context.Context, s *session) error {
	list := resolver.ForReview(s.plan, s.toolkit)
	results := make([]probeResult, len(list))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range list {
		g.Go(func() error {
			present, err := d.Probe(gctx)
			results[i] = probeResult{present: present, err: err}
			return nil
		})
	}
	_ = g.Wait()

	s.printer.Info(fmt.Sprintf("mode %s, endpoint %s", s.plan.Mode, s.plan.Endpoint))
	for i, d := range list {
		s.printer.Status(d.Name(), statusIcon(results[i]), statusDetail(d, results[i]))
	}
	return ctx.Err()
}

func statusIcon(r probeResult) ux.Icon {
	switch {
	case r.err != nil:
		return ux.IconWarning
	case r.present:
		return ux.IconSuccess
	default:
		return ux.IconPending
	}
}

func statusDetail(d deps.Dependency, r probeResult) string {
	switch {
	case r.err != nil:
		return r.err.Error()
	case r.present:
		if srv, ok := d.(*deps.InferenceServer); ok {
			return "running at " + srv.BaseURL()
		}
		return "present"
	default:
		return "absent"
	}
}
