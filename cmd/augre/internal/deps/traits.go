// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package deps declares, probes, installs and tears down the external things
augre needs before it can talk to a model.

# Capabilities

A dependency is plain data plus whichever small interfaces it implements:

	Nameable            Name() string
	PresenceCheckable   Probe(ctx) (bool, error), Install(ctx) error
	Removable           Uninstall(ctx) error
	PlatformRestricted  SupportedOn(platform.Host) bool

Anything that is Nameable and PresenceCheckable can be handed to
Orchestrator.Ensure. Adding Removable makes it eligible for
Orchestrator.Remove. There is no base type.

# Dependencies

	VersionControl    "git"          binary on PATH, apt-get install on linux
	ContainerRuntime  "docker"       binary on PATH, get.docker.com on linux
	ModelArtifact     "model"        file at model_path, downloaded from model_url
	InferenceServer   "cria_server"  HTTP /v1/models, compose up/down
*/
package deps

import (
	"context"

	"github.com/AleutianAI/augre/cmd/augre/internal/platform"
)

// Nameable has a stable identifier used in prompts, logs and errors.
type Nameable interface {
	Name() string
}

// PresenceCheckable can be probed and, when absent, installed.
type PresenceCheckable interface {
	// Probe reports presence. An error means presence could not be
	// determined, which is different from absent.
	Probe(ctx context.Context) (bool, error)

	// Install makes the dependency present. Called only after a probe
	// reported absent.
	Install(ctx context.Context) error
}

// Removable can be torn down.
type Removable interface {
	Uninstall(ctx context.Context) error
}

// PlatformRestricted is implemented by dependencies that can only be
// installed automatically on some hosts.
type PlatformRestricted interface {
	SupportedOn(host platform.Host) bool
}

// Dependency is the unit Orchestrator.Ensure works on.
type Dependency interface {
	Nameable
	PresenceCheckable
}

// RemovableDependency is the unit Orchestrator.Remove works on.
type RemovableDependency interface {
	Dependency
	Removable
}

// Removables returns the members of ds that support teardown, preserving
// order.
func Removables(ds []Dependency) []RemovableDependency {
	var out []RemovableDependency
	for _, d := range ds {
		if r, ok := d.(RemovableDependency); ok {
			out = append(out, r)
		}
	}
	return out
}

// Names lists dependency names in order.
func Names(ds []Dependency) []string {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name()
	}
	return names
}
