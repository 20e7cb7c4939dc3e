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

// Package mcpserver exposes the data tools over the Model Context Protocol
// so desktop assistants can query INEGI, Banxico and SHCP directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

// Executor runs tool calls.
type Executor interface {
	Specs() ([]tool.Spec, error)
	Execute(ctx context.Context, call tool.ToolCall, caller tool.Caller) (tool.Result, error)
}

// Server wraps an MCP server whose tools delegate to an Executor. Every
// call runs as a single configured user.
type Server struct {
	mcp    *server.MCPServer
	exec   Executor
	caller tool.Caller
}

// New registers one MCP tool per tool spec.
func New(exec Executor, userID, version string) (*Server, error) {
	specs, err := exec.Specs()
	if err != nil {
		return nil, fmt.Errorf("failed to load tool specs: %w", err)
	}

	s := &Server{
		mcp:    server.NewMCPServer("econonexo", version, server.WithToolCapabilities(false)),
		exec:   exec,
		caller: tool.Caller{UserID: userID},
	}

	for _, spec := range specs {
		schema, err := json.Marshal(spec.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema for %s: %w", spec.Name, err)
		}
		s.mcp.AddTool(mcp.NewToolWithRawSchema(spec.Name, spec.Description, schema), s.handler(spec.Name))
	}
	return s, nil
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves JSON-RPC over in and out until ctx is cancelled or in
// is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	slog.Info("MCP server listening on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		call := tool.ToolCall{ID: "mcp_" + uuid.NewString(), Name: name, Arguments: req.GetArguments()}

		result, err := s.exec.Execute(ctx, call, s.caller)
		if err != nil {
			if errors.Is(err, tool.ErrInvalidArguments) || errors.Is(err, tool.ErrUnknownTool) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, err
		}
		return render(result), nil
	}
}

// render maps a tool result onto MCP content. Tables travel as CSV with
// the source label on the first line.
func render(result tool.Result) *mcp.CallToolResult {
	switch res := result.(type) {
	case *tool.DataTable:
		return mcp.NewToolResultText(res.SourceLabel + "\n" + res.CSV())
	case *tool.Error:
		return mcp.NewToolResultError(res.Content())
	default:
		return mcp.NewToolResultText(result.Content())
	}
}
