// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config builds the immutable run configuration.
//
// # Sources
//
// In increasing precedence:
//
//  1. Defaults (mode openai, model gpt-4).
//  2. <data_path>/config.toml, optional.
//  3. <data_path>/.env, loaded into the environment without overriding
//     variables that are already set.
//  4. AUGRE_* environment variables (AUGRE_OPENAI_KEY, AUGRE_MODE,
//     AUGRE_MODEL_URL, AUGRE_CRIA_PORT, AUGRE_OPENAI_MODEL,
//     AUGRE_OPENAI_ENDPOINT).
//  5. An explicitly given --mode flag.
//
// model_path is never read. It is derived from model_url.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/AleutianAI/augre/pkg/validation"
)

const (
	// EnvPrefix is prepended to every environment key.
	EnvPrefix = "augre"

	// DefaultDataPath is the working directory for config, descriptors,
	// artifacts and logs.
	DefaultDataPath = ".augre"

	// DefaultModel is the chat model requested from the backend.
	DefaultModel = "gpt-4"

	// ConfigFileName lives under the data path.
	ConfigFileName = "config.toml"
)

// Keys accepted in config.toml and, upper-cased with the AUGRE_ prefix, in
// the environment.
const (
	KeyOpenAIKey      = "openai_key"
	KeyMode           = "mode"
	KeyModelURL       = "model_url"
	KeyCriaPort       = "cria_port"
	KeyOpenAIModel    = "openai_model"
	KeyOpenAIEndpoint = "openai_endpoint"
)

// Config is the merged, validated configuration for one run. It is built
// once by Load and passed by value.
//
// Empty strings and a zero port mean "not configured". ModelPath is
// non-empty exactly when ModelURL is.
type Config struct {
	// Endpoint overrides the hosted API base URL in remote mode.
	Endpoint string `validate:"omitempty,http_url"`

	Mode Mode

	// DataPath is absolute.
	DataPath string `validate:"required"`

	APIKey string

	ModelURL string `validate:"omitempty,http_url"`

	// ModelPath is DataPath joined with the last segment of ModelURL.
	ModelPath string `validate:"required_with=ModelURL"`

	ServerPort uint16

	// Model is the chat model name sent with each request.
	Model string `validate:"required"`
}

// Options carries the command-line inputs to Load.
type Options struct {
	// DataPath from --data-path. Empty means DefaultDataPath.
	DataPath string

	// Mode from --mode, empty unless the flag was given explicitly.
	Mode string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load merges all configuration sources.
//
// # Description
//
// Reads the optional config file and .env under the data path, applies
// environment overrides and the explicit mode flag, derives ModelPath and
// validates the result. It does not create the data path.
//
// # Inputs
//
//   - opts: Command-line values.
//
// # Outputs
//
//   - Config: Ready to hand to the resolver.
//   - error: A malformed file, an unknown mode, a port outside 1-65535 or a
//     model_url without a file name.
//
// # Example
//
//	cfg, err := config.Load(config.Options{DataPath: ".augre"})
func Load(opts Options) (Config, error) {
	dataPath := opts.DataPath
	if dataPath == "" {
		dataPath = DefaultDataPath
	}
	dataPath, err := filepath.Abs(dataPath)
	if err != nil {
		return Config{}, fmt.Errorf("resolving data path: %w", err)
	}

	envFile := filepath.Join(dataPath, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v, err := newViper(dataPath)
	if err != nil {
		return Config{}, err
	}

	modeValue := v.GetString(KeyMode)
	if opts.Mode != "" {
		modeValue = opts.Mode
	}
	mode, err := ParseMode(modeValue)
	if err != nil {
		return Config{}, err
	}

	port, err := parsePort(v.GetString(KeyCriaPort))
	if err != nil {
		return Config{}, err
	}

	modelURL := strings.TrimSpace(v.GetString(KeyModelURL))
	modelPath, err := DeriveModelPath(dataPath, modelURL)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Endpoint:   strings.TrimRight(strings.TrimSpace(v.GetString(KeyOpenAIEndpoint)), "/"),
		Mode:       mode,
		DataPath:   dataPath,
		APIKey:     strings.TrimSpace(v.GetString(KeyOpenAIKey)),
		ModelURL:   modelURL,
		ModelPath:  modelPath,
		ServerPort: port,
		Model:      v.GetString(KeyOpenAIModel),
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newViper(dataPath string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyMode, DefaultMode.String())
	v.SetDefault(KeyOpenAIModel, DefaultModel)

	v.SetEnvPrefix(EnvPrefix)
	for _, key := range []string{KeyOpenAIKey, KeyMode, KeyModelURL, KeyCriaPort, KeyOpenAIModel, KeyOpenAIEndpoint} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	file := filepath.Join(dataPath, ConfigFileName)
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("checking %s: %w", file, err)
	}
	v.SetConfigFile(file)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return v, nil
}

func parsePort(raw string) (uint16, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	port, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || port == 0 {
		return 0, fmt.Errorf("invalid %s %q: want a port between 1 and 65535", KeyCriaPort, raw)
	}
	return uint16(port), nil
}

// DeriveModelPath joins dataPath with the last path segment of modelURL.
// An empty modelURL yields an empty path.
//
// # Example
//
//	DeriveModelPath("/work/.augre", "https://host/models/llama-2-7b.gguf?dl=1")
//	// "/work/.augre/llama-2-7b.gguf"
func DeriveModelPath(dataPath, modelURL string) (string, error) {
	if modelURL == "" {
		return "", nil
	}
	u, err := url.Parse(modelURL)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", KeyModelURL, modelURL, err)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "" {
		return "", fmt.Errorf("invalid %s %q: no file name in path", KeyModelURL, modelURL)
	}
	if err := validation.ValidateFileName(name); err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", KeyModelURL, modelURL, err)
	}
	return filepath.Join(dataPath, name), nil
}
