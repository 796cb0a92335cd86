// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gitdiff reads the working tree diff that review sends to the
// model and summarizes it for the user.
package gitdiff

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/augre/cmd/augre/internal/process"
)

// ParentRevision is what the working tree is compared against.
const ParentRevision = "HEAD^"

// Source produces diffs by running git.
type Source struct {
	runner process.Runner
}

// NewSource creates a Source that runs git through runner.
func NewSource(runner process.Runner) *Source {
	return &Source{runner: runner}
}

// AgainstParent returns `git diff HEAD^` for the current directory.
//
// # Outputs
//
//   - string: The unified diff, possibly empty.
//   - error: *util.CommandError on a non-zero exit (for example a
//     repository with a single commit), util.ErrEncoding when the output
//     is not UTF-8.
func (s *Source) AgainstParent(ctx context.Context) (string, error) {
	res, err := s.runner.Run(ctx, "git", []string{"diff", ParentRevision}, true)
	if err != nil {
		return "", err
	}
	if err := res.Check(); err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Stats counts what a diff touches.
type Stats struct {
	Files   int
	Added   int
	Deleted int
}

// String renders "N files, +A -D".
func (s Stats) String() string {
	noun := "files"
	if s.Files == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s, +%d -%d", s.Files, noun, s.Added, s.Deleted)
}

// Empty reports a diff with no files.
func (s Stats) Empty() bool {
	return s.Files == 0
}

// Summarize parses a multi-file unified diff.
//
// # Description
//
// Lines are counted from hunk bodies only, so file headers never count as
// additions or deletions. Binary files count as files with no lines.
func Summarize(text string) (Stats, error) {
	if strings.TrimSpace(text) == "" {
		return Stats{}, nil
	}
	files, err := diff.NewMultiFileDiffReader(strings.NewReader(text)).ReadAllFiles()
	if err != nil {
		return Stats{}, fmt.Errorf("parsing diff: %w", err)
	}

	stats := Stats{Files: len(files)}
	for _, fd := range files {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				switch {
				case strings.HasPrefix(line, "+"):
					stats.Added++
				case strings.HasPrefix(line, "-"):
					stats.Deleted++
				}
			}
		}
	}
	return stats, nil
}
