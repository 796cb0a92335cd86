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
	"os"
	"path/filepath"

	"github.com/AleutianAI/augre/cmd/augre/internal/download"
	"github.com/AleutianAI/augre/cmd/augre/internal/platform"
	"github.com/AleutianAI/augre/cmd/augre/internal/process"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
	"github.com/AleutianAI/augre/pkg/logging"
	"github.com/AleutianAI/augre/pkg/validation"
)

const (
	// ContainerRuntimeName is the stable name of the docker dependency.
	ContainerRuntimeName = "docker"

	// DockerInstallScriptURL serves the convenience install script.
	DockerInstallScriptURL = "https://get.docker.com"
)

// ContainerRuntime is the docker engine and CLI.
type ContainerRuntime struct {
	runner    process.Runner
	fetcher   download.Fetcher
	host      platform.Host
	logger    *logging.Logger
	scriptURL string

	// user is added to the docker group after install. Empty skips it.
	user string
}

// ContainerRuntime builds the docker dependency. The group membership
// step targets $USER.
func (tk Toolkit) ContainerRuntime() *ContainerRuntime {
	return &ContainerRuntime{
		runner:    tk.Runner,
		fetcher:   tk.Fetcher,
		host:      tk.Host,
		logger:    tk.logger(),
		scriptURL: DockerInstallScriptURL,
		user:      os.Getenv("USER"),
	}
}

func (c *ContainerRuntime) Name() string { return ContainerRuntimeName }

// Probe checks PATH. It never errors.
func (c *ContainerRuntime) Probe(context.Context) (bool, error) {
	return c.runner.LookPath("docker"), nil
}

func (c *ContainerRuntime) SupportedOn(host platform.Host) bool {
	return host.IsLinux()
}

// Install downloads and runs the convenience script, then adds the
// current user to the docker group.
//
// # Description
//
// The script is written to a private temp directory that is removed on
// return. A failing group change is logged and does not fail the install.
func (c *ContainerRuntime) Install(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "augre-docker-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			c.logger.Warn("could not remove install script", "dir", dir, "error", err)
		}
	}()

	script := filepath.Join(dir, "get-docker.sh")
	if err := c.fetcher.Fetch(ctx, c.scriptURL, script); err != nil {
		return fmt.Errorf("fetching docker install script: %w", err)
	}
	if err := runChecked(ctx, c.runner, c.host, true, "sh", script); err != nil {
		return fmt.Errorf("running docker install script: %w", err)
	}

	if c.user == "" {
		c.logger.Warn("USER is not set, skipping docker group membership")
		return nil
	}
	user, err := validation.SanitizeUserName(c.user)
	if err != nil {
		c.logger.Warn("skipping docker group membership", "error", err)
		return nil
	}
	if err := runChecked(ctx, c.runner, c.host, true, "usermod", "-aG", "docker", user); err != nil {
		c.logger.Warn("could not add user to docker group",
			"user", user, "stderr", util.ExtractStderr(err), "error", err)
	}
	return nil
}

var (
	_ Dependency         = (*ContainerRuntime)(nil)
	_ PlatformRestricted = (*ContainerRuntime)(nil)
)
