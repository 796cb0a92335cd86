// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// Prompter asks the user a yes/no question.
//
// # Description
//
// Confirm blocks until the user answers. There is no timeout; callers
// cancel through ctx where the implementation supports it.
//
// # Outputs
//
//   - bool: true only for an explicit yes.
//   - error: Non-nil when the input source failed. A closed input is a no.
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// NewPrompter returns the prompter for the current session: auto-approve
// when skip is set, a huh form on an interactive terminal, and a line reader
// on stdin otherwise.
func NewPrompter(skip bool) Prompter {
	if skip {
		return AutoApprovePrompter{}
	}
	if IsInteractive() {
		return &HuhPrompter{}
	}
	return NewInteractivePrompter()
}

// -----------------------------------------------------------------------------
// Line-based prompter
// -----------------------------------------------------------------------------

// InteractivePrompter reads a y/N answer line by line.
type InteractivePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewInteractivePrompter reads from os.Stdin and writes to os.Stdout.
func NewInteractivePrompter() *InteractivePrompter {
	return NewInteractivePrompterWithIO(os.Stdin, os.Stdout)
}

// NewInteractivePrompterWithIO reads from r and writes the question to w.
func NewInteractivePrompterWithIO(r io.Reader, w io.Writer) *InteractivePrompter {
	return &InteractivePrompter{reader: bufio.NewReader(r), writer: w}
}

// Confirm prints "message [y/N]: " and accepts y or yes in any case.
// Anything else, including an empty line or EOF, is a no.
func (p *InteractivePrompter) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.writer, "%s [y/N]: ", message)

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// -----------------------------------------------------------------------------
// huh prompter
// -----------------------------------------------------------------------------

// HuhPrompter renders the question as a huh confirm field.
type HuhPrompter struct{}

// Confirm runs a single-field form. Aborting with ctrl+c counts as a no.
func (HuhPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	answer := false
	field := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)

	form := huh.NewForm(huh.NewGroup(field)).WithTheme(augreTheme())
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return answer, nil
}

func augreTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = t.Focused.Title.Foreground(ColorAccent).Bold(true)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(ColorPrimary)
	t.Blurred.Title = t.Blurred.Title.Foreground(ColorSlate)
	return t
}

// -----------------------------------------------------------------------------
// Auto approve
// -----------------------------------------------------------------------------

// AutoApprovePrompter answers yes without asking. Used for --skip-confirm.
type AutoApprovePrompter struct{}

// Confirm always returns true.
func (AutoApprovePrompter) Confirm(context.Context, string) (bool, error) {
	return true, nil
}

var (
	_ Prompter = (*InteractivePrompter)(nil)
	_ Prompter = HuhPrompter{}
	_ Prompter = AutoApprovePrompter{}
)
