// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package process runs external programs on behalf of dependency installers.

Every external command augre issues (git, apt-get, sh, docker-compose,
usermod) goes through the Runner interface so that installers can be
tested without touching the host.

# Failure Kinds

  - The program could not be spawned: *util.ProcessError (ErrProcess).
  - The program ran and exited non-zero: not an error from Run. The caller
    decides via Result.Check, which returns *util.CommandError.
  - Captured stdout was not valid UTF-8: ErrEncoding.
*/
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/augre/cmd/augre/internal/util"
	"github.com/AleutianAI/augre/pkg/logging"
)

// -----------------------------------------------------------------------------
// Interface Definition
// -----------------------------------------------------------------------------

// Runner spawns external programs.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Runner interface {
	// Run executes program with args and waits for it to exit.
	//
	// # Description
	//
	// With capture set, stdout and stderr are collected into the Result.
	// Without it the child inherits the parent's stdio so interactive
	// prompts (sudo passwords, installer output) reach the user.
	//
	// # Inputs
	//
	//   - ctx: Cancels the child process.
	//   - program: Executable name or path, resolved through PATH.
	//   - args: Arguments, passed without a shell.
	//   - capture: Collect output instead of inheriting stdio.
	//
	// # Outputs
	//
	//   - *Result: Exit code and captured output. Non-nil whenever err is nil.
	//   - error: *util.ProcessError if the program could not be started,
	//     ErrEncoding if captured stdout is not UTF-8, ctx.Err() on
	//     cancellation.
	Run(ctx context.Context, program string, args []string, capture bool) (*Result, error)

	// LookPath reports whether program is discoverable on PATH.
	LookPath(program string) bool
}

// Result is the outcome of a program that ran to completion.
type Result struct {
	// Command is the rendered command line, for messages.
	Command string

	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports a zero exit code.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Check returns nil on success and a *util.CommandError otherwise.
func (r *Result) Check() error {
	if r.Success() {
		return nil
	}
	return util.NewCommandError(r.Command, r.ExitCode, r.Stderr, nil)
}

// CommandLine renders program and args for display.
func CommandLine(program string, args []string) string {
	if len(args) == 0 {
		return program
	}
	return program + " " + strings.Join(args, " ")
}

// -----------------------------------------------------------------------------
// Exec Implementation
// -----------------------------------------------------------------------------

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	logger *logging.Logger
}

// NewExecRunner creates an ExecRunner that logs each invocation at debug
// level.
func NewExecRunner(logger *logging.Logger) *ExecRunner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ExecRunner{logger: logger}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, program string, args []string, capture bool) (*Result, error) {
	line := CommandLine(program, args)
	cmd := exec.CommandContext(ctx, program, args...)

	var stdout, stderr bytes.Buffer
	if capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	r.logger.Debug("running command", "command", line, "capture", capture)
	err := cmd.Run()

	result := &Result{Command: line}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			r.logger.Debug("command did not start", "command", line, "error", err)
			return nil, &util.ProcessError{Program: program, Err: err}
		}
		result.ExitCode = exitErr.ExitCode()
	}

	if capture {
		if !utf8.Valid(stdout.Bytes()) {
			return nil, fmt.Errorf("%w: stdout of %s", util.ErrEncoding, line)
		}
		result.Stdout = stdout.String()
		result.Stderr = strings.ToValidUTF8(stderr.String(), "�")
	}

	r.logger.Debug("command finished", "command", line, "exit_code", result.ExitCode)
	return result, nil
}

// LookPath implements Runner.
func (r *ExecRunner) LookPath(program string) bool {
	_, err := exec.LookPath(program)
	return err == nil
}

var _ Runner = (*ExecRunner)(nil)
