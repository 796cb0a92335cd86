// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/augre/cmd/augre/internal/config"
	"github.com/AleutianAI/augre/cmd/augre/internal/util"
)

type capturedRequest struct {
	path          string
	authorization string
	body          openai.ChatCompletionRequest
}

// chatServer answers chat completions with content, or with status when
// it is not 200.
func chatServer(t *testing.T, status int, content string, captured *capturedRequest) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if captured != nil {
			captured.path = r.URL.Path
			captured.authorization = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&captured.body)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"backend exploded","type":"server_error"}}`))
			return
		}
		choices := `[]`
		if content != "" {
			choices = `[{"index":0,"message":{"role":"assistant","content":` + mustJSON(t, content) + `},"finish_reason":"stop"}]`
		}
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","model":"gpt-4","choices":` + choices + `,"usage":{"total_tokens":12}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func mustJSON(t *testing.T, s string) string {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}

type fakeRecorder struct {
	seen []string
}

func (f *fakeRecorder) ObserveModelRequest(kind, outcome string) {
	f.seen = append(f.seen, kind+"/"+outcome)
}

func TestReview_SendsDiffInPrompt(t *testing.T) {
	var captured capturedRequest
	srv, _ := chatServer(t, http.StatusOK, "1. Likely runtime bugs:\n- none", &captured)
	rec := &fakeRecorder{}
	client := NewClient(Settings{
		Mode:     config.ModeRemoteAPI,
		Endpoint: srv.URL,
		APIKey:   "sk-test",
		Model:    "gpt-4",
	}, WithRecorder(rec))

	answer, err := client.Review(context.Background(), "+func main() {}")

	require.NoError(t, err)
	assert.Equal(t, "1. Likely runtime bugs:\n- none", answer)
	assert.Equal(t, "/v1/chat/completions", captured.path)
	assert.Equal(t, "Bearer sk-test", captured.authorization)
	assert.Equal(t, "gpt-4", captured.body.Model)
	require.Len(t, captured.body.Messages, 1)
	assert.Contains(t, captured.body.Messages[0].Content, "```\n+func main() {}\n```")
	assert.Contains(t, captured.body.Messages[0].Content, "three categories")
	assert.Equal(t, []string{"review/ok"}, rec.seen)
}

func TestAsk_SendsPromptVerbatim(t *testing.T) {
	var captured capturedRequest
	srv, _ := chatServer(t, http.StatusOK, "42", &captured)
	client := NewClient(Settings{Mode: config.ModeLocalCPU, Endpoint: srv.URL + "/", Model: "gpt-4"})

	answer, err := client.Ask(context.Background(), "what is the answer?")

	require.NoError(t, err)
	assert.Equal(t, "42", answer)
	assert.Equal(t, "/v1/chat/completions", captured.path)
	assert.Equal(t, "what is the answer?", captured.body.Messages[0].Content)
}

func TestSend_RemoteWithoutKey(t *testing.T) {
	srv, hits := chatServer(t, http.StatusOK, "unused", nil)
	rec := &fakeRecorder{}
	client := NewClient(Settings{Mode: config.ModeRemoteAPI, Endpoint: srv.URL, Model: "gpt-4"}, WithRecorder(rec))

	_, err := client.Ask(context.Background(), "hi")

	require.ErrorIs(t, err, util.ErrAuthenticationMissing)
	assert.Contains(t, err.Error(), "openai_key")
	assert.Zero(t, hits.Load(), "no request without a key")
	assert.Equal(t, []string{"ask/error"}, rec.seen)
}

func TestSend_LocalWithoutKey(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, "fine", nil)
	client := NewClient(Settings{Mode: config.ModeLocalGPU, Endpoint: srv.URL, Model: "gpt-4"})

	answer, err := client.Ask(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "fine", answer)
}

func TestSend_NonSuccessStatus(t *testing.T) {
	srv, _ := chatServer(t, http.StatusInternalServerError, "", nil)
	client := NewClient(Settings{Mode: config.ModeRemoteAPI, Endpoint: srv.URL, APIKey: "sk", Model: "gpt-4"})

	_, err := client.Ask(context.Background(), "hi")

	require.ErrorIs(t, err, util.ErrBackend)
	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatusCode)
}

func TestSend_EmptyChoices(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, "", nil)
	client := NewClient(Settings{Mode: config.ModeLocalCPU, Endpoint: srv.URL, Model: "gpt-4"})

	_, err := client.Review(context.Background(), "diff")

	require.ErrorIs(t, err, util.ErrBackend)
	assert.Contains(t, err.Error(), "no choices")
}

func TestSend_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client := NewClient(Settings{Mode: config.ModeLocalCPU, Endpoint: url, Model: "gpt-4"})

	_, err := client.Ask(context.Background(), "hi")

	assert.ErrorIs(t, err, util.ErrBackend)
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	client := NewClient(Settings{Mode: config.ModeLocalCPU, Endpoint: srv.URL, Model: "gpt-4"}, WithTimeout(time.Second))

	start := time.Now()
	_, err := client.Ask(context.Background(), "hi")

	assert.ErrorIs(t, err, util.ErrBackend)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestWithTimeout_EnforcesFloor(t *testing.T) {
	client := NewClient(Settings{}, WithTimeout(time.Millisecond))
	assert.Equal(t, util.MinHTTPTimeout, client.timeout)

	client = NewClient(Settings{})
	assert.Equal(t, 120*time.Second, client.timeout)
}

func TestRenderReviewPrompt(t *testing.T) {
	prompt := RenderReviewPrompt("diff --git a/x b/x\n+{{diff}}")

	assert.True(t, strings.HasPrefix(prompt, "Please perform a code review"))
	assert.Contains(t, prompt, "```\ndiff --git a/x b/x\n+{{diff}}\n```")
	assert.Equal(t, 1, strings.Count(prompt, "diff --git"))
	assert.Contains(t, prompt, "1. Likely runtime bugs:")
	assert.Contains(t, prompt, "3. Likely style bugs:")
}
