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
	"fmt"

	"github.com/AleutianAI/augre/cmd/augre/internal/platform"
	"github.com/AleutianAI/augre/cmd/augre/internal/process"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
)

// VersionControlName is the stable name of the git dependency.
const VersionControlName = "git"

// VersionControl is the git binary.
type VersionControl struct {
	runner process.Runner
	host   platform.Host
}

// VersionControl builds the git dependency.
func (tk Toolkit) VersionControl() *VersionControl {
	return &VersionControl{runner: tk.Runner, host: tk.Host}
}

func (v *VersionControl) Name() string { return VersionControlName }

// Probe checks PATH. It never errors.
func (v *VersionControl) Probe(context.Context) (bool, error) {
	return v.runner.LookPath("git"), nil
}

// SupportedOn limits automatic installs to Linux, where apt-get is assumed.
func (v *VersionControl) SupportedOn(host platform.Host) bool {
	return host.IsLinux()
}

// Install runs apt-get update and apt-get -y install git, then checks PATH
// again. Each step must exit zero.
func (v *VersionControl) Install(ctx context.Context) error {
	if err := runChecked(ctx, v.runner, v.host, true, "apt-get", "update"); err != nil {
		return fmt.Errorf("updating package index: %w", err)
	}
	if err := runChecked(ctx, v.runner, v.host, true, "apt-get", "-y", "install", "git"); err != nil {
		return fmt.Errorf("installing git package: %w", err)
	}
	if !v.runner.LookPath("git") {
		return fmt.Errorf("%w: git is still not on PATH after install", util.ErrCommandFailed)
	}
	return nil
}

var (
	_ Dependency         = (*VersionControl)(nil)
	_ PlatformRestricted = (*VersionControl)(nil)
)
