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
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/AleutianAI/augre/cmd/augre/internal/config"
	"github.com/AleutianAI/augre/cmd/augre/internal/platform"
	"github.com/AleutianAI/augre/cmd/augre/internal/process"
	"github.com/AleutianAI/augre/cmd/augre/internal/readiness"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
	"github.com/AleutianAI/augre/pkg/logging"
)

// InferenceServerName is the stable name of the local server dependency.
const InferenceServerName = "cria_server"

// InferenceServer is the containerized OpenAI-compatible model server.
//
// # Description
//
// Presence is decided by an HTTP GET on /v1/models, so a server started
// by hand or by an earlier run counts as present. Install writes a compose
// descriptor to the data path, starts the project and waits for the probe
// to succeed. Uninstall stops the project.
//
// # Limitations
//
//   - Only localhost is probed.
//   - A server that answers /v1/models with a non-2xx status is treated
//     as absent, which leads to a second compose up.
type InferenceServer struct {
	Profile   Profile
	Port      uint16
	ModelPath string
	DataPath  string

	runner process.Runner
	http   HTTPDoer
	host   platform.Host
	logger *logging.Logger
	poller readiness.Poller
	onWait readiness.RetryFunc
}

// InferenceServer builds the server dependency for cfg.
func (tk Toolkit) InferenceServer(cfg config.Config, profile Profile) *InferenceServer {
	return &InferenceServer{
		Profile:   profile,
		Port:      cfg.ServerPort,
		ModelPath: cfg.ModelPath,
		DataPath:  cfg.DataPath,
		runner:    tk.Runner,
		http:      tk.httpDoer(),
		host:      tk.Host,
		logger:    tk.logger(),
		poller:    tk.poller(),
		onWait:    tk.OnWait,
	}
}

func (s *InferenceServer) Name() string { return InferenceServerName }

// DescriptorPath is where the compose document is written.
func (s *InferenceServer) DescriptorPath() string {
	return filepath.Join(s.DataPath, DescriptorFileName)
}

// BaseURL is the server's root URL on this host.
func (s *InferenceServer) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", s.Port)
}

// Probe reports whether the server answers /v1/models with a 2xx status.
//
// # Outputs
//
//   - bool: false for any connection failure or non-2xx response.
//   - error: Missing cria_port, or ctx cancelled.
func (s *InferenceServer) Probe(ctx context.Context) (bool, error) {
	if s.Port == 0 {
		return false, util.NewMissingConfiguration(config.KeyCriaPort)
	}

	probeCtx, cancel := context.WithTimeout(ctx, util.HealthProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, s.BaseURL()+"/v1/models", nil)
	if err != nil {
		return false, fmt.Errorf("building probe request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		s.logger.Debug("inference server probe failed", "error", err)
		return false, nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
}

// Install renders the descriptor, starts the compose project and waits
// for the server to answer.
//
// # Description
//
//  1. Check cria_port and model_path.
//  2. Absolutize the model path and convert it for the container runtime.
//  3. Render and write <data_path>/docker-compose.yml.
//  4. compose -p cria -f <descriptor> up -d.
//  5. Poll Probe until ready or the poller gives up.
//
// # Outputs
//
//   - error: MissingConfiguration, a file or compose failure, or
//     ErrStartupTimeout. The compose project is left running on timeout
//     so its logs can be inspected.
func (s *InferenceServer) Install(ctx context.Context) error {
	if s.Port == 0 {
		return util.NewMissingConfiguration(config.KeyCriaPort)
	}
	if s.ModelPath == "" {
		return util.NewMissingConfiguration(modelPathField)
	}

	abs, err := filepath.Abs(s.ModelPath)
	if err != nil {
		return fmt.Errorf("resolving model path: %w", err)
	}
	mount := s.host.ContainerMountPath(abs)

	doc, err := RenderDescriptor(s.Profile, s.Port, mount)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.DataPath, 0o755); err != nil {
		return fmt.Errorf("creating data path: %w", err)
	}
	path := s.DescriptorPath()
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing descriptor: %w", err)
	}
	s.logger.Info("wrote compose descriptor", "path", path, "model", mount, "profile", s.Profile.String())

	if err := s.compose(ctx, "up", "-d"); err != nil {
		return fmt.Errorf("starting inference server: %w", err)
	}
	return s.poller.Wait(ctx, s.Probe, s.onWait)
}

// Uninstall stops the compose project. A failing compose down is logged
// and not returned; the server may already be gone.
func (s *InferenceServer) Uninstall(ctx context.Context) error {
	if err := s.compose(ctx, "down"); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("compose down failed", "path", s.DescriptorPath(), "error", err)
	}
	return nil
}

// compose runs a compose subcommand against the descriptor. The
// standalone docker-compose binary is preferred; the docker compose
// plugin is used when only docker is on PATH.
func (s *InferenceServer) compose(ctx context.Context, args ...string) error {
	program, base := "docker-compose", []string(nil)
	if !s.runner.LookPath("docker-compose") && s.runner.LookPath("docker") {
		program, base = "docker", []string{"compose"}
	}
	full := append(base, "-p", ComposeProject, "-f", s.DescriptorPath())
	full = append(full, args...)
	return runChecked(ctx, s.runner, s.host, false, program, full...)
}

var _ RemovableDependency = (*InferenceServer)(nil)
