// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package deps

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/augre/cmd/augre/internal/platform"
)

// =============================================================================
// Fake Dependency
// =============================================================================

type fakeDep struct {
	name         string
	present      bool
	probeErr     error
	installErr   error
	uninstallErr error

	installs   int
	uninstalls int
}

func (d *fakeDep) Name() string { return d.name }

func (d *fakeDep) Probe(context.Context) (bool, error) { return d.present, d.probeErr }

func (d *fakeDep) Install(context.Context) error {
	d.installs++
	if d.installErr != nil {
		return d.installErr
	}
	d.present = true
	return nil
}

func (d *fakeDep) Uninstall(context.Context) error {
	d.uninstalls++
	if d.uninstallErr != nil {
		return d.uninstallErr
	}
	d.present = false
	return nil
}

type restrictedDep struct {
	*fakeDep
	supported bool
}

func (d restrictedDep) SupportedOn(platform.Host) bool { return d.supported }

// =============================================================================
// Fake Confirmer
// =============================================================================

type fakeConfirmer struct {
	answer bool
	err    error
	asked  []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, message string) (bool, error) {
	c.asked = append(c.asked, message)
	return c.answer, c.err
}

// =============================================================================
// Recording Reporter
// =============================================================================

type reportLine struct {
	kind string
	text string
}

type recordingReporter struct {
	mu    sync.Mutex
	lines []reportLine
}

func (r *recordingReporter) add(kind, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, reportLine{kind, text})
}

func (r *recordingReporter) Step(text string)    { r.add("step", text) }
func (r *recordingReporter) Success(text string) { r.add("success", text) }
func (r *recordingReporter) Warning(text string) { r.add("warning", text) }
func (r *recordingReporter) Info(text string)    { r.add("info", text) }

func (r *recordingReporter) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	for i, l := range r.lines {
		out[i] = l.kind
	}
	return out
}

// =============================================================================
// Recorder
// =============================================================================

type observation struct {
	name, operation, outcome string
}

type fakeRecorder struct {
	seen []observation
}

func (f *fakeRecorder) ObserveDependency(name, operation, outcome string, _ time.Duration) {
	f.seen = append(f.seen, observation{name, operation, outcome})
}

// =============================================================================
// Fake Fetcher
// =============================================================================

type fetchCall struct {
	url, dest string
}

type fakeFetcher struct {
	err   error
	body  string
	calls []fetchCall
}

func (f *fakeFetcher) Fetch(_ context.Context, url, dest string) error {
	f.calls = append(f.calls, fetchCall{url, dest})
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(f.body), 0o644)
}

// =============================================================================
// HTTP
// =============================================================================

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func statusResponse(code int) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       io.NopCloser(strings.NewReader(`{"data":[]}`)),
	}
}
