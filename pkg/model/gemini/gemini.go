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

// Package gemini implements model.Provider for Google Gemini models using
// the official google.golang.org/genai SDK.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/Javier-Cancino/econonexo/pkg/model"
	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

const (
	providerName       = "google"
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = 0.1
	defaultTimeout     = 60 * time.Second
)

// Config contains configuration for the Gemini model.
type Config struct {
	APIKey string

	// Model is the model name (e.g., "gemini-2.0-flash").
	Model       string
	Temperature *float64
	Timeout     time.Duration

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// Client implements model.Provider for Gemini.
type Client struct {
	client      *genai.Client
	name        string
	temperature float32
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	temperature := defaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	// Constructors don't take a context; the SDK only uses it for setup.
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:      client,
		name:        cfg.Model,
		temperature: float32(temperature),
	}, nil
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) Step(ctx context.Context, conv []model.Message, specs []tool.Spec) (*model.Response, error) {
	contents, system := buildContents(conv)
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(c.temperature),
	}
	if len(specs) > 0 {
		config.Tools = buildTools(specs)
	}

	slog.Debug("Calling Gemini", "model", c.name, "messages", len(conv), "tools", len(specs))

	resp, err := c.client.Models.GenerateContent(ctx, c.name, contents, config)
	if err != nil {
		return nil, classify(err)
	}
	return parseResponse(resp)
}

func classify(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return model.NewError(providerName, apiErr.Code, apiErr.Status+": "+apiErr.Message, err)
	}
	// The SDK's error text carries the status code and status name, which
	// the keyword rules understand.
	return model.NewError(providerName, 0, err.Error(), err)
}

// buildContents maps the conversation onto Gemini contents. System
// messages become the system instruction; tool results travel as function
// responses in a user turn.
func buildContents(conv []model.Message) ([]*genai.Content, *genai.Content) {
	var (
		contents []*genai.Content
		system   []string
	)
	for _, m := range conv {
		switch m.Role {
		case model.RoleSystem:
			system = append(system, m.Content)
		case model.RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		case model.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			if m.ToolCall != nil {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   m.ToolCall.ID,
					Name: m.ToolCall.Name,
					Args: m.ToolCall.Arguments,
				}})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case model.RoleTool:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     m.ToolName,
					Response: responseMap(m.Content),
				},
			}}})
		}
	}

	if len(system) == 0 {
		return contents, nil
	}
	return contents, &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
}

// responseMap passes JSON objects through and wraps anything else.
func responseMap(content string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err == nil && m != nil {
		return m
	}
	return map[string]any{"result": content}
}

func buildTools(specs []tool.Spec) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  toGenaiSchema(s.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// toGenaiSchema converts a JSON schema to a Gemini schema.
func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	s := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schema["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(propMap)
			}
		}
	}
	switch required := schema["required"].(type) {
	case []any:
		for _, r := range required {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	case []string:
		s.Required = append(s.Required, required...)
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, e := range enum {
			if es, ok := e.(string); ok {
				s.Enum = append(s.Enum, es)
			}
		}
	}
	return s
}

func parseResponse(resp *genai.GenerateContentResponse) (*model.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		msg := "empty response"
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			msg = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return nil, model.NewError(providerName, 0, msg, nil)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonMalformedFunctionCall {
		return nil, model.NewToolProtocolError(providerName, "MALFORMED_FUNCTION_CALL", nil)
	}

	out := &model.Response{}
	if resp.UsageMetadata != nil {
		out.Usage = &model.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	if candidate.Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text.WriteString(part.Text)
		if part.FunctionCall != nil && out.ToolCall == nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			out.ToolCall = &tool.ToolCall{ID: id, Name: part.FunctionCall.Name, Arguments: args}
		}
	}
	out.Text = text.String()
	return out, nil
}

var _ model.Provider = (*Client)(nil)
