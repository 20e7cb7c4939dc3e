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

package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javier-Cancino/econonexo/pkg/search"
	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

type fakeExecutor struct {
	result  tool.Result
	err     error
	calls   []tool.ToolCall
	callers []tool.Caller
}

func (f *fakeExecutor) Specs() ([]tool.Spec, error) {
	return tool.Specs()
}

func (f *fakeExecutor) Execute(_ context.Context, call tool.ToolCall, caller tool.Caller) (tool.Result, error) {
	f.calls = append(f.calls, call)
	f.callers = append(f.callers, caller)
	return f.result, f.err
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToolsList(t *testing.T) {
	s, err := New(&fakeExecutor{}, "local", "test")
	require.NoError(t, err)

	msg := s.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(msg)
	require.NoError(t, err)

	for _, name := range tool.Names() {
		assert.Contains(t, string(out), string(name))
	}
	assert.Contains(t, string(out), "indicator_id")
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name      string
		result    tool.Result
		err       error
		wantError bool
		wantText  string
	}{
		{
			name: "table as csv",
			result: &tool.DataTable{
				Rows:        [][]string{{"Fecha", "Valor"}, {"02/01/2025", "20.5"}},
				SourceLabel: "Banxico - FIX",
			},
			wantText: "Banxico - FIX\n\"Fecha\",\"Valor\"\n\"02/01/2025\",\"20.5\"",
		},
		{
			name:     "search results",
			result:   &tool.SearchResults{Candidates: []search.Candidate{{ID: "SF43718", Description: "FIX"}}},
			wantText: "SF43718",
		},
		{
			name:      "not found",
			result:    &tool.Error{Kind: tool.ErrorNotFound, SubjectID: "999999999"},
			wantError: true,
			wantText:  "999999999",
		},
		{
			name:      "invalid arguments",
			err:       tool.ErrInvalidArguments,
			wantError: true,
			wantText:  "invalid tool arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{result: tt.result, err: tt.err}
			s, err := New(exec, "mcp-user", "test")
			require.NoError(t, err)

			res, err := s.handler(string(tool.NameBanxicoData))(context.Background(),
				callRequest(string(tool.NameBanxicoData), map[string]any{"series_id": "SF43718"}))
			require.NoError(t, err)

			assert.Equal(t, tt.wantError, res.IsError)
			assert.Contains(t, textOf(t, res), tt.wantText)

			require.Len(t, exec.calls, 1)
			assert.Equal(t, "SF43718", exec.calls[0].Arguments["series_id"])
			assert.Equal(t, "mcp-user", exec.callers[0].UserID)
		})
	}
}
