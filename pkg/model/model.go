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

// Package model defines the provider-neutral conversation and the Provider
// interface every LLM backend implements.
//
// A Provider takes one step: given the conversation so far and the tools on
// offer it returns either text or a single tool call. Backends that emit
// several tool calls in one turn are truncated to the first.
package model

import (
	"context"

	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation entry.
//
// An assistant message that requested a tool carries ToolCall. A tool
// message answers it and carries ToolCallID and ToolName.
type Message struct {
	Role       Role
	Content    string
	ToolCall   *tool.ToolCall
	ToolCallID string
	ToolName   string
}

// Response is the outcome of one step.
type Response struct {
	Text     string
	ToolCall *tool.ToolCall
	Usage    *Usage
}

// HasToolCall reports whether the model asked for a tool.
func (r *Response) HasToolCall() bool {
	return r != nil && r.ToolCall != nil
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider is an LLM backend. Errors returned by Step are *Error.
type Provider interface {
	// Name returns the provider identifier ("groq", "openai", "google").
	Name() string

	// Step asks the model for the next move. specs may be empty, in which
	// case the model must answer with text.
	Step(ctx context.Context, conv []Message, specs []tool.Spec) (*Response, error)
}

// Factory builds a provider bound to an API key.
type Factory func(apiKey string) (Provider, error)
