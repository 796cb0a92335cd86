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

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Sentinels
// =============================================================================

var (
	ErrProcess               = errors.New("process could not be started")
	ErrCommandFailed         = errors.New("command failed")
	ErrMissingConfiguration  = errors.New("missing configuration")
	ErrUserDeclined          = errors.New("user declined")
	ErrUnsupportedPlatform   = errors.New("unsupported platform")
	ErrStartupTimeout        = errors.New("startup timeout")
	ErrAuthenticationMissing = errors.New("authentication missing")
	ErrBackend               = errors.New("backend error")
	ErrEncoding              = errors.New("invalid output encoding")
)

// =============================================================================
// Command Error Type
// =============================================================================

// CommandError is a command that ran to completion with a non-zero exit.
//
// # Description
//
// Carries the command line, exit code and trimmed stderr. It matches
// ErrCommandFailed through errors.Is and unwraps to Wrapped when set.
//
// # Example
//
//	err := NewCommandError("docker-compose -p cria up -d", 1, "port is already allocated", nil)
//	fmt.Println(err) // "docker-compose -p cria up -d (exit 1): port is already allocated"
//
// # Limitations
//
//   - Stderr is held in memory in full.
type CommandError struct {
	// Command is the command line that was executed.
	Command string

	// ExitCode is the process exit code (-1 if unknown).
	ExitCode int

	// Stderr is the captured standard error, trimmed. Empty when the
	// command ran with inherited stdio.
	Stderr string

	// Wrapped is the underlying error, may be nil.
	Wrapped error
}

// Error formats the command, exit code and the most useful detail.
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s (exit %d): %s", e.Command, e.ExitCode, e.Stderr)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s (exit %d): %v", e.Command, e.ExitCode, e.Wrapped)
	}
	return fmt.Sprintf("%s (exit %d)", e.Command, e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

// Is matches ErrCommandFailed.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}

// NewCommandError creates a CommandError. Stderr is trimmed.
func NewCommandError(cmd string, exitCode int, stderr string, wrapped error) *CommandError {
	return &CommandError{
		Command:  cmd,
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(stderr),
		Wrapped:  wrapped,
	}
}

// ExtractStderr walks the chain for the first CommandError with stderr.
func ExtractStderr(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Stderr
	}
	return ""
}

// =============================================================================
// Process Error Type
// =============================================================================

// ProcessError reports that a program could not be spawned at all.
type ProcessError struct {
	Program string
	Err     error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("cannot start %s: %v", e.Program, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Is matches ErrProcess.
func (e *ProcessError) Is(target error) bool { return target == ErrProcess }

// =============================================================================
// Missing Configuration Error Type
// =============================================================================

// MissingConfigurationError names the configuration key that was required
// but absent. Field uses the config file key, e.g. "model_path".
type MissingConfigurationError struct {
	Field string
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s is not set", e.Field)
}

// Is matches ErrMissingConfiguration.
func (e *MissingConfigurationError) Is(target error) bool {
	return target == ErrMissingConfiguration
}

// NewMissingConfiguration returns a *MissingConfigurationError for field.
func NewMissingConfiguration(field string) error {
	return &MissingConfigurationError{Field: field}
}

// =============================================================================
// Dependency Error Type
// =============================================================================

// DependencyError attaches a dependency name and operation to a failure.
type DependencyError struct {
	// Name is the dependency's stable name, e.g. "docker".
	Name string

	// Op is "probe", "install" or "uninstall".
	Op string

	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// WrapDependency returns nil for a nil err and never double-wraps the same
// dependency and operation.
func WrapDependency(name, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *DependencyError
	if errors.As(err, &existing) && existing.Name == name && existing.Op == op {
		return err
	}
	return &DependencyError{Name: name, Op: op, Err: err}
}
