// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling and prompts for the augre CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	ColorAccent  = lipgloss.Color("#7AA2F7")
	ColorPrimary = lipgloss.Color("#5A7FD6")
	ColorSlate   = lipgloss.Color("#565F89")

	ColorSuccess = lipgloss.Color("#9ECE6A")
	ColorWarning = lipgloss.Color("#E0AF68")
	ColorError   = lipgloss.Color("#F7768E")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorAccent).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1),
}

// Icon is a single-glyph status marker.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
)

// Render returns the icon with its semantic color.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return Styles.Highlight.Render(string(i))
	}
}

// Printer writes user-facing status lines, honoring the personality level.
// Normal output goes to out; warnings and errors go to errOut.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewPrinter creates a Printer over the given writers.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, errOut: errOut}
}

// StdPrinter creates a Printer over os.Stdout and os.Stderr.
func StdPrinter() *Printer {
	return NewPrinter(os.Stdout, os.Stderr)
}

// Out returns the writer used for normal output.
func (p *Printer) Out() io.Writer { return p.out }

func (p *Printer) write(w io.Writer, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

// Title prints a heading. Suppressed in machine and standard mode.
func (p *Printer) Title(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine, PersonalityStandard:
		return
	}
	p.write(p.out, "%s\n", Styles.Title.Render(text))
}

// Step announces the start of an action.
func (p *Printer) Step(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		p.write(p.out, "STEP: %s\n", text)
	default:
		p.write(p.out, "%s %s\n", IconArrow.Render(), text)
	}
}

// Success prints a success message with a checkmark.
func (p *Printer) Success(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		p.write(p.out, "OK: %s\n", text)
	case PersonalityMinimal:
		p.write(p.out, "%s %s\n", IconSuccess.Render(), text)
	default:
		p.write(p.out, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message.
func (p *Printer) Warning(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		p.write(p.errOut, "WARN: %s\n", text)
	case PersonalityMinimal:
		p.write(p.errOut, "%s %s\n", IconWarning.Render(), text)
	default:
		p.write(p.errOut, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints a single error line.
func (p *Printer) Error(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		p.write(p.errOut, "ERROR: %s\n", text)
	case PersonalityMinimal:
		p.write(p.errOut, "%s error: %s\n", IconError.Render(), text)
	default:
		p.write(p.errOut, "%s %s\n", IconError.Render(), Styles.Error.Render("error: "+text))
	}
}

// Info prints an informational line.
func (p *Printer) Info(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		p.write(p.out, "%s\n", text)
	default:
		p.write(p.out, "%s %s\n", Styles.Muted.Render("│"), text)
	}
}

// Muted prints secondary text. Suppressed in machine mode.
func (p *Printer) Muted(text string) {
	if GetPersonalityLevel() == PersonalityMachine {
		return
	}
	p.write(p.out, "%s\n", Styles.Muted.Render(text))
}

// Status prints one aligned line describing the state of a named item.
func (p *Printer) Status(name string, icon Icon, detail string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		p.write(p.out, "%s\t%s\t%s\n", name, icon, detail)
	default:
		p.write(p.out, "%s %-12s %s\n", icon.Render(), name, Styles.Muted.Render(detail))
	}
}

// Box prints content under a title inside a rounded border. In machine mode
// the content is written verbatim so it can be piped.
func (p *Printer) Box(title, content string) {
	if GetPersonalityLevel() == PersonalityMachine {
		p.write(p.out, "%s\n", content)
		return
	}
	p.write(p.out, "%s\n", Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}
