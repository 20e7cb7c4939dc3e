// Copyright 2025 Kadir Pekel
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

// Package openai implements model.Provider over the Chat Completions
// protocol. It serves OpenAI itself and compatible endpoints such as Groq.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Javier-Cancino/econonexo/pkg/httpclient"
	"github.com/Javier-Cancino/econonexo/pkg/model"
	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.1
	defaultTimeout     = 60 * time.Second
)

// Config configures the client.
type Config struct {
	// Name is the provider identifier reported in errors ("openai", "groq").
	Name        string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float64
	Timeout     time.Duration
	MaxRetries  int
}

// Client is a Chat Completions provider.
type Client struct {
	httpClient  *httpclient.Client
	name        string
	apiKey      string
	baseURL     string
	modelName   string
	temperature float64
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}
	temperature := defaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}

	return &Client{
		httpClient: httpclient.New(
			httpclient.WithTimeout(timeout),
			httpclient.WithMaxRetries(maxRetries),
			httpclient.WithRetryStrategy(httpclient.FailFastOnQuota),
		),
		name:        name,
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		modelName:   modelName,
		temperature: temperature,
	}, nil
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Step(ctx context.Context, conv []model.Message, specs []tool.Spec) (*model.Response, error) {
	body, err := json.Marshal(c.buildRequest(conv, specs))
	if err != nil {
		return nil, model.NewError(c.name, 0, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, model.NewError(c.name, 0, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("Calling chat completions", "provider", c.name, "model", c.modelName, "messages", len(conv), "tools", len(specs))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, model.NewError(c.name, resp.StatusCode, "failed to decode response", err)
	}
	return c.parseResponse(&out)
}

// classify turns a transport or status failure into a *model.Error, using
// the provider's error body when there is one.
func (c *Client) classify(err error) error {
	se, ok := httpclient.AsStatus(err)
	if !ok {
		return model.NewError(c.name, 0, err.Error(), err)
	}

	// Only the provider's structured message reaches the user; anything else
	// in the body stays in the debug log.
	var body errorResponse
	message := fmt.Sprintf("API error: %d", se.StatusCode)
	if json.Unmarshal(se.Body, &body) == nil && body.Error.Message != "" {
		message = body.Error.Message
	} else {
		slog.Debug("Unstructured provider error body", "provider", c.name, "status", se.StatusCode, "body", string(se.Body))
	}

	if body.Error.Code == "tool_use_failed" {
		return model.NewToolProtocolError(c.name, message, err)
	}
	return model.NewError(c.name, se.StatusCode, message, err)
}

func (c *Client) buildRequest(conv []model.Message, specs []tool.Spec) *chatRequest {
	req := &chatRequest{
		Model:       c.modelName,
		Messages:    convertMessages(conv),
		Temperature: c.temperature,
	}
	for _, s := range specs {
		req.Tools = append(req.Tools, apiTool{
			Type: "function",
			Function: apiFunction{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
	}
	return req
}

func convertMessages(conv []model.Message) []chatMessage {
	out := make([]chatMessage, 0, len(conv))
	for _, m := range conv {
		msg := chatMessage{Role: string(m.Role)}
		switch m.Role {
		case model.RoleAssistant:
			if m.Content != "" {
				msg.Content = &m.Content
			}
			if m.ToolCall != nil {
				args, err := json.Marshal(m.ToolCall.Arguments)
				if err != nil || m.ToolCall.Arguments == nil {
					args = []byte("{}")
				}
				msg.ToolCalls = []apiToolCall{{
					ID:   m.ToolCall.ID,
					Type: "function",
					Function: apiCallFunction{
						Name:      m.ToolCall.Name,
						Arguments: string(args),
					},
				}}
			}
		case model.RoleTool:
			content := m.Content
			msg.Content = &content
			msg.ToolCallID = m.ToolCallID
		default:
			content := m.Content
			msg.Content = &content
		}
		out = append(out, msg)
	}
	return out
}

func (c *Client) parseResponse(resp *chatResponse) (*model.Response, error) {
	if len(resp.Choices) == 0 {
		return nil, model.NewError(c.name, 0, "empty response", nil)
	}
	msg := resp.Choices[0].Message

	out := &model.Response{}
	if msg.Content != nil {
		out.Text = *msg.Content
	}
	if resp.Usage != nil {
		out.Usage = &model.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	if len(msg.ToolCalls) == 0 {
		return out, nil
	}
	if len(msg.ToolCalls) > 1 {
		slog.Debug("Dropping extra tool calls", "provider", c.name, "count", len(msg.ToolCalls))
	}

	call := msg.ToolCalls[0]
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, model.NewToolProtocolError(c.name,
				fmt.Sprintf("unparsable arguments for %s", call.Function.Name),
				errors.Join(err, fmt.Errorf("arguments: %s", raw)))
		}
	}

	id := call.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	out.ToolCall = &tool.ToolCall{ID: id, Name: call.Function.Name, Arguments: args}
	return out, nil
}

var _ model.Provider = (*Client)(nil)
