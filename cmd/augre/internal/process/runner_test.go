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
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/augre/cmd/augre/internal/util"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// -----------------------------------------------------------------------------
// ExecRunner Tests
// -----------------------------------------------------------------------------

func TestExecRunner_CapturesOutput(t *testing.T) {
	skipWithoutShell(t)
	r := NewExecRunner(nil)

	res, err := r.Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"}, true)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.NoError(t, res.Check())
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	skipWithoutShell(t)
	r := NewExecRunner(nil)

	res, err := r.Run(context.Background(), "sh", []string{"-c", "echo nope >&2; exit 3"}, true)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.Success())

	checkErr := res.Check()
	assert.ErrorIs(t, checkErr, util.ErrCommandFailed)
	var cmdErr *util.CommandError
	require.ErrorAs(t, checkErr, &cmdErr)
	assert.Equal(t, "nope", cmdErr.Stderr)
	assert.Equal(t, 3, cmdErr.ExitCode)
}

func TestExecRunner_SpawnFailure(t *testing.T) {
	r := NewExecRunner(nil)

	res, err := r.Run(context.Background(), "augre-definitely-not-a-program", nil, true)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, util.ErrProcess)
}

func TestExecRunner_InvalidUTF8Stdout(t *testing.T) {
	skipWithoutShell(t)
	r := NewExecRunner(nil)

	_, err := r.Run(context.Background(), "sh", []string{"-c", `printf '\377\376'`}, true)
	assert.ErrorIs(t, err, util.ErrEncoding)
}

func TestExecRunner_CancelledContext(t *testing.T) {
	skipWithoutShell(t)
	r := NewExecRunner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, "sh", []string{"-c", "sleep 5"}, true)
	assert.Error(t, err)
}

func TestExecRunner_LookPath(t *testing.T) {
	skipWithoutShell(t)
	r := NewExecRunner(nil)

	assert.True(t, r.LookPath("sh"))
	assert.False(t, r.LookPath("augre-definitely-not-a-program"))
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "git", CommandLine("git", nil))
	assert.Equal(t, "git diff HEAD^", CommandLine("git", []string{"diff", "HEAD^"}))
}

// -----------------------------------------------------------------------------
// MockRunner Tests
// -----------------------------------------------------------------------------

func TestMockRunner_RecordsCalls(t *testing.T) {
	m := &MockRunner{Installed: map[string]bool{"git": true}}

	assert.True(t, m.LookPath("git"))
	assert.False(t, m.LookPath("docker"))
	res, err := m.Run(context.Background(), "apt-get", []string{"update"}, false)
	require.NoError(t, err)
	assert.Equal(t, "apt-get update", res.Command)

	calls := m.GetCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, "LookPath", calls[0].Method)
	assert.Equal(t, []string{"apt-get update"}, m.RunLines())

	m.Reset()
	assert.Empty(t, m.GetCalls())
}

func TestMockRunner_RunFuncFillsCommand(t *testing.T) {
	m := &MockRunner{
		RunFunc: func(context.Context, string, []string, bool) (*Result, error) {
			return &Result{ExitCode: 1, Stderr: "denied"}, nil
		},
	}

	res, err := m.Run(context.Background(), "usermod", []string{"-aG", "docker", "me"}, true)
	require.NoError(t, err)
	assert.EqualError(t, res.Check(), "usermod -aG docker me (exit 1): denied")
}
