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
	"fmt"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTick = 80 * time.Millisecond

// Spinner is an animated single-line progress indicator bound to a Printer.
type Spinner struct {
	printer    *Printer
	message    string
	stop       chan struct{}
	done       chan struct{}
	mu         sync.Mutex
	isRunning  bool
	animated   bool
	frameIndex int
}

// NewSpinner creates a spinner that draws on the printer's output.
func (p *Printer) NewSpinner(message string) *Spinner {
	return &Spinner{
		printer: p,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the animation. In machine mode the message is printed once.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.animated = GetPersonalityLevel() != PersonalityMachine
	msg := s.message
	s.mu.Unlock()

	if !s.animated {
		s.printer.write(s.printer.out, "PROGRESS: %s\n", msg)
		return
	}

	go func() {
		ticker := time.NewTicker(spinnerTick)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				s.printer.write(s.printer.out, "\r\033[K")
				close(s.done)
				return
			case <-ticker.C:
				s.mu.Lock()
				frame := Styles.Highlight.Render(spinnerFrames[s.frameIndex])
				s.frameIndex = (s.frameIndex + 1) % len(spinnerFrames)
				msg := s.message
				s.mu.Unlock()
				s.printer.write(s.printer.out, "\r%s %s", frame, msg)
			}
		}
	}()
}

// Stop halts the animation and clears the line. Safe to call twice.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	animated := s.animated
	s.mu.Unlock()

	if !animated {
		return
	}
	close(s.stop)
	<-s.done
}

// UpdateMessage changes the message while running.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// StopWithSuccess stops and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	s.printer.Success(message)
}

// StopWithWarning stops and prints a warning line.
func (s *Spinner) StopWithWarning(message string) {
	s.Stop()
	s.printer.Warning(message)
}

// WithSpinner runs fn while a spinner is shown. The spinner is always cleared
// before returning; the error from fn is returned unchanged.
func WithSpinner(p *Printer, message string, fn func() error) error {
	spin := p.NewSpinner(message)
	spin.Start()
	err := fn()
	if err != nil {
		spin.Stop()
		return err
	}
	spin.StopWithSuccess(fmt.Sprintf("%s done", message))
	return nil
}
