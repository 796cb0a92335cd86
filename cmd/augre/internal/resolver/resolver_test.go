// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/augre/cmd/augre/internal/config"
	"github.com/AleutianAI/augre/cmd/augre/internal/deps"
	"github.com/AleutianAI/augre/cmd/augre/internal/platform"
	"github.com/AleutianAI/augre/cmd/augre/internal/process"
)

func testToolkit() deps.Toolkit {
	return deps.Toolkit{Runner: &process.MockRunner{}, Host: platform.Host{OS: "linux"}}
}

func testConfig() config.Config {
	return config.Config{
		DataPath:   "/data",
		APIKey:     "sk-test",
		ModelURL:   "https://example.com/model.bin",
		ModelPath:  "/data/model.bin",
		ServerPort: 7000,
		Model:      config.DefaultModel,
	}
}

func TestResolve_RemoteHasNoDependencies(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"default endpoint", "", DefaultRemoteEndpoint},
		{"override", "https://proxy.internal", "https://proxy.internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Endpoint = tt.endpoint

			plan := Resolve(config.ModeRemoteAPI, cfg, testToolkit())

			assert.Empty(t, plan.Dependencies)
			assert.Empty(t, plan.Removable())
			assert.Equal(t, tt.want, plan.Endpoint)
			assert.Equal(t, "sk-test", plan.APIKey)
			assert.False(t, plan.IsLocal())
		})
	}
}

func TestResolve_LocalCPU(t *testing.T) {
	plan := Resolve(config.ModeLocalCPU, testConfig(), testToolkit())

	assert.Equal(t, "http://localhost:7000", plan.Endpoint)
	assert.Equal(t, []string{"docker", "model", "cria_server"}, deps.Names(plan.Dependencies))
	server, ok := plan.Dependencies[2].(*deps.InferenceServer)
	require.True(t, ok)
	assert.Equal(t, deps.ProfileCPU, server.Profile)
	assert.True(t, plan.IsLocal())
}

func TestResolve_LocalGPUIncludesGPUServer(t *testing.T) {
	plan := Resolve(config.ModeLocalGPU, testConfig(), testToolkit())

	require.Len(t, plan.Dependencies, 3)
	server, ok := plan.Dependencies[2].(*deps.InferenceServer)
	require.True(t, ok)
	assert.Equal(t, deps.ProfileGPU, server.Profile)
	assert.Equal(t, uint16(7000), server.Port)
	assert.Equal(t, "/data/model.bin", server.ModelPath)
}

func TestResolve_IgnoresEndpointOverrideLocally(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoint = "https://proxy.internal"

	plan := Resolve(config.ModeLocalCPU, cfg, testToolkit())
	assert.Equal(t, "http://localhost:7000", plan.Endpoint)
}

func TestResolve_LocalWithoutPort(t *testing.T) {
	cfg := testConfig()
	cfg.ServerPort = 0

	plan := Resolve(config.ModeLocalCPU, cfg, testToolkit())
	assert.Equal(t, "http://localhost", plan.Endpoint)
}

func TestPlan_Removable(t *testing.T) {
	plan := Resolve(config.ModeLocalGPU, testConfig(), testToolkit())

	removable := plan.Removable()
	require.Len(t, removable, 1)
	assert.Equal(t, deps.InferenceServerName, removable[0].Name())
}

func TestForReview_PrependsVersionControl(t *testing.T) {
	tk := testToolkit()

	remote := ForReview(Resolve(config.ModeRemoteAPI, testConfig(), tk), tk)
	assert.Equal(t, []string{"git"}, deps.Names(remote))

	local := ForReview(Resolve(config.ModeLocalCPU, testConfig(), tk), tk)
	assert.Equal(t, []string{"git", "docker", "model", "cria_server"}, deps.Names(local))
}
