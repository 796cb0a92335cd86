// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package process

import (
	"context"
	"sync"
)

// MockRunner is a Runner for tests.
//
// # Description
//
// Every call is recorded before delegating to the matching Func field.
// When RunFunc is nil, Run succeeds with exit code 0 and no output. When
// LookPathFunc is nil, LookPath consults Installed.
//
// # Example
//
//	runner := &process.MockRunner{Installed: map[string]bool{"git": true}}
//	runner.RunFunc = func(ctx context.Context, program string, args []string, capture bool) (*process.Result, error) {
//	    return &process.Result{ExitCode: 1, Stderr: "denied"}, nil
//	}
type MockRunner struct {
	RunFunc      func(ctx context.Context, program string, args []string, capture bool) (*Result, error)
	LookPathFunc func(program string) bool

	// Installed backs the default LookPath.
	Installed map[string]bool

	Calls []RunnerCall
	mu    sync.Mutex
}

// RunnerCall records one invocation.
type RunnerCall struct {
	Method  string
	Program string
	Args    []string
	Capture bool
}

// Line renders the call as a command line.
func (c RunnerCall) Line() string {
	return CommandLine(c.Program, c.Args)
}

// Run records the call and delegates to RunFunc.
func (m *MockRunner) Run(ctx context.Context, program string, args []string, capture bool) (*Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, RunnerCall{Method: "Run", Program: program, Args: append([]string(nil), args...), Capture: capture})
	fn := m.RunFunc
	m.mu.Unlock()

	if fn == nil {
		return &Result{Command: CommandLine(program, args)}, nil
	}
	res, err := fn(ctx, program, args, capture)
	if res != nil && res.Command == "" {
		res.Command = CommandLine(program, args)
	}
	return res, err
}

// LookPath records the call and delegates to LookPathFunc or Installed.
func (m *MockRunner) LookPath(program string) bool {
	m.mu.Lock()
	m.Calls = append(m.Calls, RunnerCall{Method: "LookPath", Program: program})
	fn := m.LookPathFunc
	installed := m.Installed[program]
	m.mu.Unlock()

	if fn != nil {
		return fn(program)
	}
	return installed
}

// SetInstalled flips the default LookPath answer for program.
func (m *MockRunner) SetInstalled(program string, installed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Installed == nil {
		m.Installed = make(map[string]bool)
	}
	m.Installed[program] = installed
}

// GetCalls returns a copy of the recorded calls.
func (m *MockRunner) GetCalls() []RunnerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunnerCall, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// RunLines returns the command lines of recorded Run calls, in order.
func (m *MockRunner) RunLines() []string {
	var lines []string
	for _, c := range m.GetCalls() {
		if c.Method == "Run" {
			lines = append(lines, c.Line())
		}
	}
	return lines
}

// Reset clears recorded calls.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

var _ Runner = (*MockRunner)(nil)
