// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver turns a mode and a configuration into the list of
// dependencies a command needs and the endpoint the model client talks to.
package resolver

import (
	"fmt"

	"github.com/AleutianAI/augre/cmd/augre/internal/config"
	"github.com/AleutianAI/augre/cmd/augre/internal/deps"
)

// DefaultRemoteEndpoint is the hosted API base URL.
const DefaultRemoteEndpoint = "https://api.openai.com"

// Plan is everything a command needs to prepare its backend.
type Plan struct {
	Mode config.Mode

	// Endpoint is the backend base URL, without /v1.
	Endpoint string

	// APIKey may be empty in local modes.
	APIKey string

	// Model is the chat model name.
	Model string

	// Dependencies are ordered so that each one's prerequisites come
	// before it.
	Dependencies []deps.Dependency
}

// Resolve builds the plan for mode.
//
// # Description
//
// Resolve has no side effects: it only constructs values. The same mode
// and configuration always produce the same dependency names in the same
// order.
//
//	openai    endpoint = cfg.Endpoint or DefaultRemoteEndpoint, no dependencies
//	localcpu  endpoint = http://localhost:<cria_port>,
//	          docker, model, cria_server (cpu)
//	localgpu  as localcpu with cria_server (gpu)
//
// # Inputs
//
//   - mode: Usually cfg.Mode. Passed separately so callers can plan for a
//     mode other than the configured one.
//   - cfg: Loaded configuration.
//   - tk: Collaborators handed to each dependency.
//
// # Outputs
//
//   - Plan: Never nil-valued. Missing configuration surfaces later, when
//     the dependency is probed.
func Resolve(mode config.Mode, cfg config.Config, tk deps.Toolkit) Plan {
	plan := Plan{
		Mode:   mode,
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	}

	switch mode {
	case config.ModeLocalCPU, config.ModeLocalGPU:
		plan.Endpoint = localEndpoint(cfg.ServerPort)
		profile := deps.ProfileCPU
		if mode == config.ModeLocalGPU {
			profile = deps.ProfileGPU
		}
		plan.Dependencies = []deps.Dependency{
			tk.ContainerRuntime(),
			tk.ModelArtifact(cfg),
			tk.InferenceServer(cfg, profile),
		}
	default:
		plan.Endpoint = cfg.Endpoint
		if plan.Endpoint == "" {
			plan.Endpoint = DefaultRemoteEndpoint
		}
	}
	return plan
}

// localEndpoint leaves the port off when it is unset; the server's own
// probe reports the missing cria_port before anything is sent there.
func localEndpoint(port uint16) string {
	if port == 0 {
		return "http://localhost"
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// Removable is the teardown set of the plan, in reverse dependency order.
func (p Plan) Removable() []deps.RemovableDependency {
	removable := deps.Removables(p.Dependencies)
	for i, j := 0, len(removable)-1; i < j; i, j = i+1, j-1 {
		removable[i], removable[j] = removable[j], removable[i]
	}
	return removable
}

// IsLocal reports whether the plan runs its own backend.
func (p Plan) IsLocal() bool {
	return p.Mode.IsLocal()
}

// ForReview returns the plan's dependencies with version control first,
// since the review command needs git before anything else.
func ForReview(p Plan, tk deps.Toolkit) []deps.Dependency {
	out := make([]deps.Dependency, 0, len(p.Dependencies)+1)
	out = append(out, tk.VersionControl())
	return append(out, p.Dependencies...)
}
