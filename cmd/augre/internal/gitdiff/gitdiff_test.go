// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gitdiff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/augre/cmd/augre/internal/process"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
)

const twoFileDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,5 @@
 package main
 // entry point
-func main() {}
+func main() {
+	run()
+}
diff --git a/README.md b/README.md
index 3333333..4444444 100644
--- a/README.md
+++ b/README.md
@@ -1,2 +1,1 @@
 # augre
-old line
`

func TestSummarize(t *testing.T) {
	stats, err := Summarize(twoFileDiff)

	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 2, Added: 3, Deleted: 2}, stats)
	assert.Equal(t, "2 files, +3 -2", stats.String())
	assert.False(t, stats.Empty())
}

func TestSummarize_Empty(t *testing.T) {
	for _, in := range []string{"", "\n", "   \n\t"} {
		stats, err := Summarize(in)
		require.NoError(t, err)
		assert.True(t, stats.Empty())
		assert.Equal(t, "0 files, +0 -0", stats.String())
	}
}

func TestStats_SingularFile(t *testing.T) {
	assert.Equal(t, "1 file, +1 -0", Stats{Files: 1, Added: 1}.String())
}

func TestAgainstParent(t *testing.T) {
	runner := &process.MockRunner{
		RunFunc: func(context.Context, string, []string, bool) (*process.Result, error) {
			return &process.Result{Stdout: twoFileDiff}, nil
		},
	}

	out, err := NewSource(runner).AgainstParent(context.Background())

	require.NoError(t, err)
	assert.Equal(t, twoFileDiff, out)
	calls := runner.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "git diff HEAD^", calls[0].Line())
	assert.True(t, calls[0].Capture)
}

func TestAgainstParent_Failure(t *testing.T) {
	runner := &process.MockRunner{
		RunFunc: func(context.Context, string, []string, bool) (*process.Result, error) {
			return &process.Result{ExitCode: 128, Stderr: "fatal: ambiguous argument 'HEAD^'"}, nil
		},
	}

	_, err := NewSource(runner).AgainstParent(context.Background())

	require.ErrorIs(t, err, util.ErrCommandFailed)
	assert.Contains(t, util.ExtractStderr(err), "ambiguous argument")
}

func TestAgainstParent_Encoding(t *testing.T) {
	runner := &process.MockRunner{
		RunFunc: func(context.Context, string, []string, bool) (*process.Result, error) {
			return nil, util.ErrEncoding
		},
	}

	_, err := NewSource(runner).AgainstParent(context.Background())
	assert.ErrorIs(t, err, util.ErrEncoding)
}
