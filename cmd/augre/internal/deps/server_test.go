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
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/augre/cmd/augre/internal/config"
	"github.com/AleutianAI/augre/cmd/augre/internal/process"
	"github.com/AleutianAI/augre/cmd/augre/internal/readiness"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
)

// =============================================================================
// Descriptor
// =============================================================================

func parseDescriptor(t *testing.T, doc string) composeFile {
	t.Helper()
	var cf composeFile
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cf))
	return cf
}

func TestRenderDescriptor_CPU(t *testing.T) {
	doc, err := RenderDescriptor(ProfileCPU, 7000, "/data/model.bin")
	require.NoError(t, err)

	assert.Contains(t, doc, "7000:7000")
	assert.Contains(t, doc, "/data/model.bin:/app/model.bin")
	assert.NotContains(t, doc, "CRIA_USE_GPU")
	assert.NotContains(t, doc, "nvidia")
	assert.NotContains(t, doc, "{{")

	cf := parseDescriptor(t, doc)
	server := cf.Services[ServerServiceName]
	assert.Equal(t, ServerImage, server.Image)
	assert.Contains(t, server.Environment, "CRIA_PORT=7000")
	assert.Contains(t, server.Environment, "CRIA_CONTEXT_SIZE=65536")
	assert.Nil(t, server.Deploy)
	assert.Equal(t, []string{"9411:9411"}, cf.Services[CollectorServiceName].Ports)
}

func TestRenderDescriptor_GPU(t *testing.T) {
	doc, err := RenderDescriptor(ProfileGPU, 8080, "//c/models/llama.bin")
	require.NoError(t, err)

	cf := parseDescriptor(t, doc)
	server := cf.Services[ServerServiceName]
	assert.Equal(t, []string{"8080:8080"}, server.Ports)
	assert.Equal(t, []string{"//c/models/llama.bin:/app/model.bin"}, server.Volumes)
	assert.Contains(t, server.Environment, "CRIA_USE_GPU=true")
	assert.Contains(t, server.Environment, "CRIA_GPU_LAYERS=32")
	assert.NotNil(t, server.Deploy)
	assert.Contains(t, doc, "driver: nvidia")
}

func TestRenderDescriptor_Rejects(t *testing.T) {
	_, err := RenderDescriptor(ProfileCPU, 0, "/data/model.bin")
	assert.Error(t, err)

	_, err = RenderDescriptor(ProfileCPU, 7000, "")
	assert.Error(t, err)

	_, err = RenderDescriptor(ProfileCPU, 7000, `/data/"quoted".bin`)
	assert.Error(t, err, "a path that breaks the document is caught")
}

// =============================================================================
// InferenceServer
// =============================================================================

// fakeServer answers /v1/models once compose up has run.
type fakeServer struct {
	up     atomic.Bool
	probes atomic.Int32
	urls   []string
}

func (f *fakeServer) doer() HTTPDoer {
	return doerFunc(func(r *http.Request) (*http.Response, error) {
		f.probes.Add(1)
		f.urls = append(f.urls, r.URL.String())
		if !f.up.Load() {
			return nil, errors.New("connection refused")
		}
		return statusResponse(http.StatusOK), nil
	})
}

func (f *fakeServer) runner(extra map[string]bool) *process.MockRunner {
	r := &process.MockRunner{Installed: extra}
	r.RunFunc = func(_ context.Context, _ string, args []string, _ bool) (*process.Result, error) {
		if slices.Contains(args, "up") {
			f.up.Store(true)
		}
		if slices.Contains(args, "down") {
			f.up.Store(false)
		}
		return &process.Result{}, nil
	}
	return r
}

func newTestServer(t *testing.T, f *fakeServer, runner process.Runner, profile Profile) *InferenceServer {
	t.Helper()
	dataPath := t.TempDir()
	tk := Toolkit{
		Runner: runner,
		HTTP:   f.doer(),
		Host:   linuxHost,
		Poller: readiness.Poller{Attempts: 3},
	}
	return tk.InferenceServer(config.Config{
		DataPath:   dataPath,
		ModelPath:  filepath.Join(dataPath, "model.bin"),
		ServerPort: 7000,
	}, profile)
}

func TestInferenceServer_ProbeRequiresPort(t *testing.T) {
	s := &InferenceServer{}

	_, err := s.Probe(context.Background())

	var missing *util.MissingConfigurationError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "cria_port", missing.Field)
}

func TestInferenceServer_ProbeStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		want bool
	}{
		{"ok", http.StatusOK, true},
		{"unavailable", http.StatusServiceUnavailable, false},
		{"not found", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var url string
			s := Toolkit{HTTP: doerFunc(func(r *http.Request) (*http.Response, error) {
				url = r.URL.String()
				return statusResponse(tt.code), nil
			})}.InferenceServer(config.Config{ServerPort: 7000}, ProfileCPU)

			got, err := s.Probe(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "http://localhost:7000/v1/models", url)
		})
	}
}

func TestInferenceServer_ProbeConnectionRefused(t *testing.T) {
	f := &fakeServer{}
	s := newTestServer(t, f, f.runner(nil), ProfileCPU)

	present, err := s.Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, present)
}

func TestInferenceServer_ProbeCancelled(t *testing.T) {
	f := &fakeServer{}
	s := newTestServer(t, f, f.runner(nil), ProfileCPU)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Probe(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInferenceServer_Install(t *testing.T) {
	f := &fakeServer{}
	runner := f.runner(map[string]bool{"docker-compose": true, "docker": true})
	s := newTestServer(t, f, runner, ProfileCPU)

	require.NoError(t, s.Install(context.Background()))

	path := s.DescriptorPath()
	assert.Equal(t, filepath.Join(s.DataPath, "docker-compose.yml"), path)
	assert.Equal(t, []string{"docker-compose -p cria -f " + path + " up -d"}, runner.RunLines())

	doc, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "7000:7000")
	assert.Contains(t, string(doc), s.ModelPath+":/app/model.bin")
	assert.EqualValues(t, 1, f.probes.Load())
}

func TestInferenceServer_InstallFallsBackToComposePlugin(t *testing.T) {
	f := &fakeServer{}
	runner := f.runner(map[string]bool{"docker": true})
	s := newTestServer(t, f, runner, ProfileGPU)

	require.NoError(t, s.Install(context.Background()))

	assert.Equal(t, []string{"docker compose -p cria -f " + s.DescriptorPath() + " up -d"}, runner.RunLines())
	doc, err := os.ReadFile(s.DescriptorPath())
	require.NoError(t, err)
	assert.Contains(t, string(doc), "CRIA_USE_GPU=true")
}

func TestInferenceServer_InstallTimesOut(t *testing.T) {
	f := &fakeServer{}
	runner := &process.MockRunner{Installed: map[string]bool{"docker-compose": true}}
	var retries []int
	s := newTestServer(t, f, runner, ProfileCPU)
	s.onWait = func(n, _ int) { retries = append(retries, n) }

	err := s.Install(context.Background())

	require.ErrorIs(t, err, util.ErrStartupTimeout)
	assert.EqualValues(t, 3, f.probes.Load())
	assert.Equal(t, []int{1, 2}, retries)
}

func TestInferenceServer_InstallComposeFailure(t *testing.T) {
	f := &fakeServer{}
	runner := &process.MockRunner{
		Installed: map[string]bool{"docker-compose": true},
		RunFunc: func(context.Context, string, []string, bool) (*process.Result, error) {
			return &process.Result{ExitCode: 1, Stderr: "pull access denied"}, nil
		},
	}
	s := newTestServer(t, f, runner, ProfileCPU)

	err := s.Install(context.Background())

	require.ErrorIs(t, err, util.ErrCommandFailed)
	assert.Zero(t, f.probes.Load(), "no polling after a failed start")
}

func TestInferenceServer_InstallRequiresConfiguration(t *testing.T) {
	f := &fakeServer{}
	runner := &process.MockRunner{}

	s := newTestServer(t, f, runner, ProfileCPU)
	s.ModelPath = ""
	err := s.Install(context.Background())
	var missing *util.MissingConfigurationError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "model_path", missing.Field)

	s = newTestServer(t, f, runner, ProfileCPU)
	s.Port = 0
	err = s.Install(context.Background())
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "cria_port", missing.Field)

	assert.Empty(t, runner.RunLines())
}

func TestInferenceServer_Uninstall(t *testing.T) {
	f := &fakeServer{}
	f.up.Store(true)
	runner := f.runner(map[string]bool{"docker-compose": true})
	s := newTestServer(t, f, runner, ProfileCPU)

	require.NoError(t, s.Uninstall(context.Background()))

	assert.Equal(t, []string{"docker-compose -p cria -f " + s.DescriptorPath() + " down"}, runner.RunLines())
	assert.False(t, f.up.Load())
}

func TestInferenceServer_UninstallIgnoresComposeFailure(t *testing.T) {
	runner := &process.MockRunner{
		RunFunc: func(context.Context, string, []string, bool) (*process.Result, error) {
			return &process.Result{ExitCode: 1, Stderr: "no such file"}, nil
		},
	}
	s := newTestServer(t, &fakeServer{}, runner, ProfileCPU)

	assert.NoError(t, s.Uninstall(context.Background()))
}

func TestToolkit_DefaultPoller(t *testing.T) {
	p := Toolkit{}.poller()
	assert.Equal(t, util.ReadinessAttempts, p.Attempts)
	assert.Equal(t, util.ReadinessInterval, p.Interval)
}
