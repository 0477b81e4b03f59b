// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 💬 systemPrompt instructs the model to extract literals into constants
const systemPrompt = "You are a Java refactoring assistant. " +
	"Extract every string literal into a `public static final String` constant " +
	"declared at the top (after package+imports), " +
	"and replace usages accordingly. " +
	"Return ONLY the full, compilable refactored source code."

const maxErrorBodyBytes = 2048

// 🔧 ChatOptions configures the chat-completions client
type ChatOptions struct {
	// Endpoint is the chat completions URL
	Endpoint string
	// APIKey is attached as a bearer credential when non-empty
	APIKey string
	// Timeout bounds each attempt; zero means no per-attempt bound
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client
}

// 🌐 ChatClient calls an OpenAI-compatible chat completions endpoint and
// returns the assistant message content as the rewritten source.
type ChatClient struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
}

// 🏭 NewChatClient creates a chat-completions oracle
func NewChatClient(opts ChatOptions) (*ChatClient, error) {
	if opts.Endpoint == "" {
		return nil, errors.Errorf("endpoint is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &ChatClient{
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		timeout:  opts.Timeout,
		http:     client,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Rewrite implements Oracle. One attempt, one POST; classification of the
// outcome follows the transient/fatal taxonomy in oracle.go.
func (c *ChatClient) Rewrite(ctx context.Context, req Request) (string, error) {
	logger := zerolog.Ctx(ctx)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: req.Source},
		},
		Temperature: 0,
		MaxTokens:   4096,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", Fatal(errors.Errorf("encoding request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", Fatal(errors.Errorf("building request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// connection failures and timeouts are worth retrying
		return "", Transient(errors.Errorf("calling oracle: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		statusErr := errors.Errorf("unexpected status %s: %s", resp.Status, string(snippet))
		logger.Debug().Str("path", req.Path).Int("status", resp.StatusCode).Msg("oracle returned error status")

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", Transient(statusErr)
		}
		return "", Fatal(statusErr)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", Fatal(errors.Errorf("decoding response: %w", err))
	}

	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", Fatal(errors.Errorf("empty rewritten content"))
	}

	return out.Choices[0].Message.Content, nil
}
