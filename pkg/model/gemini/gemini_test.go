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

package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/Javier-Cancino/econonexo/pkg/model"
	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "AIza-test"})
	require.NoError(t, err)
	assert.Equal(t, "google", c.Name())
	assert.Equal(t, defaultModel, c.name)
}

func TestBuildContents(t *testing.T) {
	contents, system := buildContents([]model.Message{
		{Role: model.RoleSystem, Content: "Eres EconoNexo"},
		{Role: model.RoleUser, Content: "tasa objetivo"},
		{Role: model.RoleAssistant, ToolCall: &tool.ToolCall{ID: "c1", Name: "get_banxico_data", Arguments: map[string]any{"series_id": "SF61745"}}},
		{Role: model.RoleTool, Content: `{"success":true,"data":{"rows":3}}`, ToolCallID: "c1", ToolName: "get_banxico_data"},
		{Role: model.RoleTool, Content: "not json", ToolCallID: "c2", ToolName: "search_indicator"},
	})

	require.NotNil(t, system)
	assert.Equal(t, "Eres EconoNexo", system.Parts[0].Text)

	require.Len(t, contents, 4)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "get_banxico_data", contents[1].Parts[0].FunctionCall.Name)

	resp := contents[2].Parts[0].FunctionResponse
	require.NotNil(t, resp)
	assert.Equal(t, "c1", resp.ID)
	assert.Equal(t, true, resp.Response["success"])

	assert.Equal(t, map[string]any{"result": "not json"}, contents[3].Parts[0].FunctionResponse.Response)
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source": map[string]any{"type": "string", "enum": []any{"inegi", "banxico"}, "description": "Fuente"},
		},
		"required": []any{"source"},
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"source"}, s.Required)
	assert.Equal(t, genai.TypeString, s.Properties["source"].Type)
	assert.Equal(t, []string{"inegi", "banxico"}, s.Properties["source"].Enum)
	assert.Nil(t, toGenaiSchema(nil))
}

func TestParseResponse(t *testing.T) {
	resp, err := parseResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{
				{Text: "Consulto el dato."},
				{FunctionCall: &genai.FunctionCall{Name: "get_shcp_data", Args: map[string]any{"dataset_id": "rfsp"}}},
				{FunctionCall: &genai.FunctionCall{Name: "get_shcp_data", Args: map[string]any{"dataset_id": "deuda_publica"}}},
			}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{TotalTokenCount: 42},
	})
	require.NoError(t, err)
	assert.Equal(t, "Consulto el dato.", resp.Text)
	require.NotNil(t, resp.ToolCall)
	assert.Equal(t, map[string]any{"dataset_id": "rfsp"}, resp.ToolCall.Arguments)
	assert.True(t, strings.HasPrefix(resp.ToolCall.ID, "call_"))
	assert.Equal(t, 42, resp.Usage.TotalTokens)
}

func TestParseResponse_Errors(t *testing.T) {
	_, err := parseResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMalformedFunctionCall}},
	})
	assert.Equal(t, model.ClassToolProtocol, model.Classify(err))

	_, err = parseResponse(&genai.GenerateContentResponse{})
	require.Error(t, err)
	assert.Equal(t, model.ClassOther, model.Classify(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want model.ErrorClass
	}{
		{errors.New("Error 429, Message: Resource has been exhausted, Status: RESOURCE_EXHAUSTED"), model.ClassQuota},
		{errors.New("generate_content_free_tier_requests, limit: 0"), model.ClassQuota},
		{errors.New("Error 400, Message: API key not valid, Status: INVALID_ARGUMENT"), model.ClassOther},
		{fmt.Errorf("doRequest: error sending request: %w", &url.Error{
			Op:  "Post",
			URL: "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
			Err: context.DeadlineExceeded,
		}), model.ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			err := classify(tt.err)
			assert.Equal(t, tt.want, model.Classify(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClassify_TimeoutMessage(t *testing.T) {
	err := classify(fmt.Errorf("doRequest: %w", context.DeadlineExceeded))
	assert.Equal(t, model.ClassOther, model.Classify(err))
	assert.Equal(t, "request timed out", model.ErrorMessage(err))
}
