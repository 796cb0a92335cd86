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
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile selects the compute variant of the inference server.
type Profile int

const (
	ProfileCPU Profile = iota
	ProfileGPU
)

func (p Profile) String() string {
	if p == ProfileGPU {
		return "gpu"
	}
	return "cpu"
}

// Names used inside the compose project.
const (
	ComposeProject       = "cria"
	ServerServiceName    = "cria"
	CollectorServiceName = "zipkin-server"
	DescriptorFileName   = "docker-compose.yml"
	ServerImage          = "twitchax/cria-gpu:2023.09.20"

	containerModelPath = "/app/model.bin"
	placeholderPort    = "{{port}}"
	placeholderModel   = "{{model}}"
)

// The two compose documents differ only in the GPU environment and the
// device reservation.
const (
	cpuDescriptorTemplate = `version: "3.8"

services:
  cria:
    image: twitchax/cria-gpu:2023.09.20
    ports:
      - "{{port}}:{{port}}"
    volumes:
      - "{{model}}:/app/model.bin"
    environment:
      - CRIA_SERVICE_NAME=cria
      - CRIA_HOST=0.0.0.0
      - CRIA_PORT={{port}}
      - CRIA_ZIPKIN_ENDPOINT=http://zipkin-server:9411/api/v2/spans
      - CRIA_CONTEXT_SIZE=65536
  zipkin-server:
    image: openzipkin/zipkin
    ports:
      - "9411:9411"
`

	gpuDescriptorTemplate = `version: "3.8"

services:
  cria:
    image: twitchax/cria-gpu:2023.09.20
    ports:
      - "{{port}}:{{port}}"
    volumes:
      - "{{model}}:/app/model.bin"
    environment:
      - CRIA_SERVICE_NAME=cria
      - CRIA_HOST=0.0.0.0
      - CRIA_PORT={{port}}
      - CRIA_ZIPKIN_ENDPOINT=http://zipkin-server:9411/api/v2/spans
      - CRIA_CONTEXT_SIZE=65536
      - CRIA_USE_GPU=true
      - CRIA_GPU_LAYERS=32
    deploy:
      resources:
        reservations:
          devices:
            - driver: nvidia
              count: 1
              capabilities: [ gpu ]
  zipkin-server:
    image: openzipkin/zipkin
    ports:
      - "9411:9411"
`
)

// composeFile is the subset of the compose schema augre checks after
// rendering.
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Image       string         `yaml:"image"`
	Ports       []string       `yaml:"ports"`
	Volumes     []string       `yaml:"volumes"`
	Environment []string       `yaml:"environment"`
	Deploy      map[string]any `yaml:"deploy"`
}

// RenderDescriptor fills the compose template for profile.
//
// # Description
//
// Substitutes every {{port}} and {{model}} placeholder, then parses the
// result to make sure the model path did not break the document.
//
// # Inputs
//
//   - profile: CPU or GPU variant.
//   - port: Host and container port of the server.
//   - mountPath: Model path as the container runtime expects it, see
//     platform.Host.ContainerMountPath.
//
// # Outputs
//
//   - string: The compose document.
//   - error: Port zero, an empty path, or a document that no longer parses.
//
// # Example
//
//	doc, _ := RenderDescriptor(ProfileCPU, 7000, "/data/model.bin")
//	// contains "7000:7000" and "/data/model.bin:/app/model.bin"
func RenderDescriptor(profile Profile, port uint16, mountPath string) (string, error) {
	if port == 0 {
		return "", fmt.Errorf("rendering descriptor: port must be set")
	}
	if mountPath == "" {
		return "", fmt.Errorf("rendering descriptor: model path must be set")
	}

	tmpl := cpuDescriptorTemplate
	if profile == ProfileGPU {
		tmpl = gpuDescriptorTemplate
	}
	doc := strings.NewReplacer(
		placeholderPort, strconv.Itoa(int(port)),
		placeholderModel, mountPath,
	).Replace(tmpl)

	if err := checkDescriptor(doc, port, mountPath); err != nil {
		return "", err
	}
	return doc, nil
}

func checkDescriptor(doc string, port uint16, mountPath string) error {
	var cf composeFile
	if err := yaml.Unmarshal([]byte(doc), &cf); err != nil {
		return fmt.Errorf("rendered descriptor is not valid YAML: %w", err)
	}
	server, ok := cf.Services[ServerServiceName]
	if !ok || server.Image != ServerImage {
		return fmt.Errorf("rendered descriptor has no %q service running %s", ServerServiceName, ServerImage)
	}
	if _, ok := cf.Services[CollectorServiceName]; !ok {
		return fmt.Errorf("rendered descriptor has no %q service", CollectorServiceName)
	}
	wantVolume := mountPath + ":" + containerModelPath
	if len(server.Volumes) != 1 || server.Volumes[0] != wantVolume {
		return fmt.Errorf("rendered descriptor mounts %v, want %q", server.Volumes, wantVolume)
	}
	wantPort := fmt.Sprintf("%d:%d", port, port)
	if len(server.Ports) != 1 || server.Ports[0] != wantPort {
		return fmt.Errorf("rendered descriptor publishes %v, want %q", server.Ports, wantPort)
	}
	return nil
}
