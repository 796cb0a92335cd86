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
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/augre/cmd/augre/internal/config"
	"github.com/AleutianAI/augre/cmd/augre/internal/deps"
	"github.com/AleutianAI/augre/cmd/augre/internal/download"
	"github.com/AleutianAI/augre/cmd/augre/internal/llm"
	"github.com/AleutianAI/augre/cmd/augre/internal/platform"
	"github.com/AleutianAI/augre/cmd/augre/internal/process"
	"github.com/AleutianAI/augre/cmd/augre/internal/readiness"
	"github.com/AleutianAI/augre/cmd/augre/internal/resolver"
	"github.com/AleutianAI/augre/cmd/augre/internal/telemetry"
	"github.com/AleutianAI/augre/pkg/logging"
	"github.com/AleutianAI/augre/pkg/ux"
)

// =============================================================================
// Wiring
// =============================================================================

// wiring is every outside-world collaborator the commands use. main fills
// it with real implementations; tests replace individual fields.
type wiring struct {
	stdout io.Writer
	stderr io.Writer

	host       platform.Host
	newRunner  func(*logging.Logger) process.Runner
	newFetcher func(logger *logging.Logger, progress io.Writer) download.Fetcher

	// http probes the inference server. nil uses the default client.
	http deps.HTTPDoer

	// poller overrides readiness pacing. Zero means the default.
	poller readiness.Poller

	// prompter overrides the confirm prompt. nil picks one from the
	// terminal and --skip-confirm.
	prompter ux.Prompter
}

func productionWiring(stdout, stderr io.Writer) *wiring {
	return &wiring{
		stdout: stdout,
		stderr: stderr,
		host:   platform.Current(),
		newRunner: func(l *logging.Logger) process.Runner {
			return process.NewExecRunner(l)
		},
		newFetcher: func(l *logging.Logger, progress io.Writer) download.Fetcher {
			return download.NewHTTPFetcher(l, progress)
		},
	}
}

// =============================================================================
// Global Options
// =============================================================================

type globalOptions struct {
	dataPath    string
	mode        config.Mode
	skipConfirm bool
	verbose     bool
	personality string
	metricsFile string
}

// =============================================================================
// Root Command
// =============================================================================

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, w *wiring) int {
	root := newRootCmd(w)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		ux.NewPrinter(w.stdout, w.stderr).Error(singleLine(err.Error()))
		return 1
	}
	return 0
}

// singleLine joins the non-blank lines of msg with "; ". Captured stderr
// and validation errors span several lines.
func singleLine(msg string) string {
	var parts []string
	for _, line := range strings.Split(msg, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "; ")
}

func newRootCmd(w *wiring) *cobra.Command {
	opts := &globalOptions{mode: config.DefaultMode}

	root := &cobra.Command{
		Use:   "augre",
		Short: "Code review and prompts against a hosted or local language model",
		Long: `augre sends the current diff or a free-form prompt to a language model.

In openai mode it talks to the hosted API. In localcpu and localgpu mode it
makes sure docker, the model file and a local inference server are in place
first, asking before it installs anything unless --skip-confirm is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ux.InitPersonality(opts.personality)
		},
	}
	root.SetOut(w.stdout)
	root.SetErr(w.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataPath, "data-path", config.DefaultDataPath,
		"directory for config.toml, the model file, the compose descriptor and logs")
	flags.Var(&opts.mode, "mode", "backend mode: openai, localcpu or localgpu (overrides config)")
	flags.BoolVar(&opts.skipConfirm, "skip-confirm", false, "install dependencies without asking")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug records to stderr")
	flags.StringVar(&opts.personality, "personality", "",
		"output style: full, standard, minimal or machine (env "+ux.PersonalityEnvVar+")")
	flags.StringVar(&opts.metricsFile, "metrics-file", "",
		"write run metrics to this file in Prometheus text format")

	root.AddCommand(
		newReviewCmd(w, opts),
		newAskCmd(w, opts),
		newStopCmd(w, opts),
		newPrepareCmd(w, opts),
		newStatusCmd(w, opts),
	)
	return root
}

// =============================================================================
// Session
// =============================================================================

// session is everything one command invocation shares.
type session struct {
	cfg          config.Config
	plan         resolver.Plan
	toolkit      deps.Toolkit
	orchestrator *deps.Orchestrator
	printer      *ux.Printer
	logger       *logging.Logger
	metrics      *telemetry.Metrics
	confirm      bool

	lock        *process.InstanceLock
	metricsFile string
	closers     []func() error
}

// openSession loads configuration and builds the collaborators. With
// exclusive set it also takes the instance lock in the data path.
func openSession(cmd *cobra.Command, w *wiring, opts *globalOptions, exclusive bool) (*session, error) {
	loadOpts := config.Options{DataPath: opts.dataPath}
	if cmd.Flags().Changed("mode") {
		loadOpts.Mode = opts.mode.String()
	}
	cfg, err := config.Load(loadOpts)
	if err != nil {
		return nil, err
	}

	level := logging.LevelInfo
	if opts.verbose {
		level = logging.LevelDebug
	}
	base := logging.New(logging.Config{
		Level:   level,
		LogDir:  filepath.Join(cfg.DataPath, "logs"),
		Service: "augre",
		Quiet:   !opts.verbose,
		Output:  w.stderr,
	})
	logger := base.With("run_id", uuid.NewString(), "command", cmd.Name(), "mode", cfg.Mode.String())

	s := &session{
		cfg:         cfg,
		printer:     ux.NewPrinter(w.stdout, w.stderr),
		logger:      logger,
		metrics:     telemetry.New(),
		confirm:     !opts.skipConfirm,
		metricsFile: opts.metricsFile,
	}
	s.closers = append(s.closers, base.Close)

	if exclusive {
		s.lock = process.NewInstanceLock(cfg.DataPath, "augre")
		if err := s.lock.Acquire(); err != nil {
			_ = base.Close()
			return nil, err
		}
	}

	poller := w.poller
	poller.OnAttempt = s.metrics.ObserveReadiness
	s.toolkit = deps.Toolkit{
		Runner:  w.newRunner(logger),
		Fetcher: w.newFetcher(logger, w.stderr),
		HTTP:    w.http,
		Host:    w.host,
		Logger:  logger,
		Poller:  poller,
		OnWait: func(attempt, attempts int) {
			s.printer.Info(fmt.Sprintf("waiting for %s to start (%d/%d)", deps.InferenceServerName, attempt, attempts))
		},
	}
	s.plan = resolver.Resolve(cfg.Mode, cfg, s.toolkit)

	prompter := w.prompter
	if prompter == nil {
		prompter = ux.NewPrompter(opts.skipConfirm)
	}
	s.orchestrator = deps.NewOrchestrator(w.host, prompter, s.printer, logger, deps.WithRecorder(s.metrics))

	logger.Debug("session opened",
		"data_path", cfg.DataPath,
		"endpoint", s.plan.Endpoint,
		"dependencies", deps.Names(s.plan.Dependencies))
	return s, nil
}

// client builds the model client for the session's plan.
func (s *session) client() *llm.Client {
	return llm.NewClient(llm.Settings{
		Mode:     s.plan.Mode,
		Endpoint: s.plan.Endpoint,
		APIKey:   s.plan.APIKey,
		Model:    s.plan.Model,
	}, llm.WithLogger(s.logger), llm.WithRecorder(s.metrics))
}

// close releases the lock, writes metrics and flushes logs. Every step
// runs even if an earlier one fails.
func (s *session) close() error {
	var errs []error
	if s.lock != nil {
		errs = append(errs, s.lock.Release())
	}
	if s.metricsFile != "" {
		errs = append(errs, s.metrics.WriteTextfile(s.metricsFile))
	}
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// withSession opens a session, runs fn and closes the session. A close
// failure is only returned when fn succeeded.
func withSession(cmd *cobra.Command, w *wiring, opts *globalOptions, exclusive bool, fn func(ctx context.Context, s *session) error) (err error) {
	s, err := openSession(cmd, w, opts, exclusive)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = fn(cmd.Context(), s)
	if err != nil {
		s.logger.Error("command failed", "error", err)
	}
	return err
}
