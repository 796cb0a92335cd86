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
	"fmt"
	"io/fs"
	"os"

	"github.com/AleutianAI/augre/cmd/augre/internal/config"
	"github.com/AleutianAI/augre/cmd/augre/internal/download"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
)

// ModelArtifactName is the stable name of the model file dependency.
const ModelArtifactName = "model"

// modelPathField is derived from model_url, so it has no config key of
// its own; errors still name it.
const modelPathField = "model_path"

// ModelArtifact is a model weights file on local disk.
type ModelArtifact struct {
	Path string
	URL  string

	fetcher download.Fetcher
}

// ModelArtifact builds the model dependency from cfg.
func (tk Toolkit) ModelArtifact(cfg config.Config) *ModelArtifact {
	return &ModelArtifact{Path: cfg.ModelPath, URL: cfg.ModelURL, fetcher: tk.Fetcher}
}

func (m *ModelArtifact) Name() string { return ModelArtifactName }

// Probe reports whether a file exists at Path. Any stat error other than
// "does not exist" is returned.
func (m *ModelArtifact) Probe(context.Context) (bool, error) {
	if m.Path == "" {
		return false, util.NewMissingConfiguration(modelPathField)
	}
	_, err := os.Stat(m.Path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("checking %s: %w", m.Path, err)
	}
}

// Install downloads URL to Path.
func (m *ModelArtifact) Install(ctx context.Context) error {
	if m.Path == "" {
		return util.NewMissingConfiguration(modelPathField)
	}
	if m.URL == "" {
		return util.NewMissingConfiguration(config.KeyModelURL)
	}
	return m.fetcher.Fetch(ctx, m.URL, m.Path)
}

var _ Dependency = (*ModelArtifact)(nil)
