// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm sends review and ask requests to an OpenAI-compatible chat
// completion endpoint, hosted or local.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/augre/cmd/augre/internal/config"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
	"github.com/AleutianAI/augre/pkg/logging"
)

// Request kinds, also used as metric labels.
const (
	KindReview = "review"
	KindAsk    = "ask"
)

// Recorder observes every request outcome ("ok" or "error").
type Recorder interface {
	ObserveModelRequest(kind, outcome string)
}

// Settings identify the backend.
type Settings struct {
	Mode config.Mode

	// Endpoint is the base URL without /v1.
	Endpoint string

	APIKey string
	Model  string
}

// Client talks to one backend for the lifetime of a command.
type Client struct {
	api      *openai.Client
	settings Settings
	timeout  time.Duration
	logger   *logging.Logger
	recorder Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout. Values below
// util.MinHTTPTimeout are raised to it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = util.EnforceMinTimeout(d, util.MinHTTPTimeout) }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a client for s.
//
// # Description
//
// Requests go to <Endpoint>/v1/chat/completions. Each one is bounded by
// util.ModelRequestTimeout unless WithTimeout says otherwise. The key is
// sent as a bearer token when set.
//
// # Example
//
//	client := llm.NewClient(llm.Settings{
//	    Mode:     plan.Mode,
//	    Endpoint: plan.Endpoint,
//	    APIKey:   plan.APIKey,
//	    Model:    plan.Model,
//	}, llm.WithLogger(logger))
func NewClient(s Settings, opts ...Option) *Client {
	c := &Client{
		settings: s,
		timeout:  util.ModelRequestTimeout,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := openai.DefaultConfig(s.APIKey)
	cfg.BaseURL = strings.TrimRight(s.Endpoint, "/") + "/v1"
	cfg.HTTPClient = &http.Client{Timeout: c.timeout}
	c.api = openai.NewClientWithConfig(cfg)
	return c
}

// Review asks the backend to review diff and returns its answer.
func (c *Client) Review(ctx context.Context, diff string) (string, error) {
	return c.send(ctx, KindReview, RenderReviewPrompt(diff))
}

// Ask sends prompt unchanged and returns the answer.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, KindAsk, prompt)
}

// send performs one chat completion.
//
// # Outputs
//
//   - string: Content of the first choice.
//   - error: ErrAuthenticationMissing before any I/O when a remote key is
//     missing. ErrBackend for transport failures, non-2xx responses and
//     empty choice lists; the go-openai error stays reachable through
//     errors.As.
func (c *Client) send(ctx context.Context, kind, content string) (answer string, err error) {
	defer func() {
		if c.recorder == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.recorder.ObserveModelRequest(kind, outcome)
	}()

	if c.settings.Mode == config.ModeRemoteAPI && c.settings.APIKey == "" {
		return "", fmt.Errorf("%w: set %s or use a local mode", util.ErrAuthenticationMissing, config.KeyOpenAIKey)
	}

	c.logger.Debug("sending chat completion",
		"kind", kind, "model", c.settings.Model, "endpoint", c.settings.Endpoint, "chars", len(content))
	started := time.Now()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.settings.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	if err != nil {
		c.logger.Error("chat completion failed", "kind", kind, "error", err)
		return "", fmt.Errorf("%w: %s request failed: %w", util.ErrBackend, kind, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s response had no choices", util.ErrBackend, kind)
	}

	c.logger.Info("chat completion finished",
		"kind", kind,
		"finish_reason", string(resp.Choices[0].FinishReason),
		"total_tokens", resp.Usage.TotalTokens,
		"elapsed", time.Since(started).Round(time.Millisecond).String())
	return resp.Choices[0].Message.Content, nil
}
