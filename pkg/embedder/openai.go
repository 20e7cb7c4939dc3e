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

package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Javier-Cancino/econonexo/pkg/httpclient"
)

// OpenAICompatible calls a POST {base}/embeddings endpoint in the OpenAI
// shape. Voyage AI serves the same protocol and additionally accepts an
// input_type hint.
type OpenAICompatible struct {
	client    *httpclient.Client
	baseURL   string
	apiKey    string
	model     string
	inputType string
}

type embedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Detail string `json:"detail"`
}

func NewOpenAICompatible(client *httpclient.Client, baseURL, apiKey, model, inputType string) (*OpenAICompatible, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for embedder at %s", baseURL)
	}
	if model == "" {
		return nil, fmt.Errorf("model is required for embedder at %s", baseURL)
	}
	return &OpenAICompatible{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		inputType: inputType,
	}, nil
}

func (e *OpenAICompatible) Model() string {
	return e.model
}

func (e *OpenAICompatible) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: []string{text}, InputType: e.inputType})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		if statusErr, ok := httpclient.AsStatus(err); ok {
			return nil, unavailable("%s: %s", statusErr.Error(), apiMessage(statusErr.Body))
		}
		return nil, unavailable("%v", err)
	}
	defer resp.Body.Close()

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, unavailable("failed to decode response: %v", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, unavailable("empty embedding in response")
	}
	return out.Data[0].Embedding, nil
}

func apiMessage(body []byte) string {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error.Message != "" {
			return apiErr.Error.Message
		}
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
	}
	return strings.TrimSpace(string(body))
}

var _ Embedder = (*OpenAICompatible)(nil)
