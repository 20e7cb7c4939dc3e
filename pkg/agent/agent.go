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

// Package agent answers a user's question by driving an LLM through a
// bounded tool-use loop.
//
// # States
//
//	Planning       ask a provider for the next move
//	ExecutingTool  run the requested tool and decide where to go
//	Done           an answer is ready (optionally with a data table)
//	Exhausted      quota or the iteration bound ran out
//	TerminalError  a fixed message ends the request
//
// Providers are tried in priority order. A quota failure moves to the next
// provider and benches the failing one for the rest of the request; a
// malformed tool call is retried on the same provider a few times; any other
// provider failure ends the request.
//
// Run never returns an error: every branch resolves to a Response whose
// message is safe to show to the user. Details go to the log.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Javier-Cancino/econonexo/pkg/credential"
	"github.com/Javier-Cancino/econonexo/pkg/model"
	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

const (
	DefaultMaxIterations       = 5
	DefaultToolProtocolRetries = 2
)

// Executor runs tool calls.
type Executor interface {
	Specs() ([]tool.Spec, error)
	Execute(ctx context.Context, call tool.ToolCall, caller tool.Caller) (tool.Result, error)
}

// ProviderSlot is one entry in the fallback order. The user's own key for
// Name wins over ServerKey.
type ProviderSlot struct {
	Name      string
	ServerKey string
	New       model.Factory
}

// Observer receives run and provider-step outcomes.
type Observer interface {
	ObserveRun(ctx context.Context, outcome string, iterations int, elapsed time.Duration)
	ObserveProviderStep(ctx context.Context, provider string, outcome string, elapsed time.Duration)
}

// Request is one user question.
type Request struct {
	UserID  string `json:"-"`
	Message string `json:"message"`
}

// Response is the answer to a Request.
type Response struct {
	Message string `json:"message"`
	Data    *Data  `json:"data,omitempty"`
}

// Data is a fetched table. Table[0] is the header.
type Data struct {
	Table  [][]string `json:"table"`
	CSV    string     `json:"csv"`
	Source string     `json:"source"`
}

// Agent is stateless between requests and safe for concurrent use.
type Agent struct {
	tools        Executor
	creds        credential.Store
	slots        []ProviderSlot
	systemPrompt string
	maxIter      int
	retries      int
	observer     Observer
}

type Option func(*Agent)

func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIter = n
		}
	}
}

func WithToolProtocolRetries(n int) Option {
	return func(a *Agent) {
		if n >= 0 {
			a.retries = n
		}
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

func WithObserver(o Observer) Option {
	return func(a *Agent) {
		a.observer = o
	}
}

// New creates an agent. slots is the provider priority order.
func New(tools Executor, creds credential.Store, slots []ProviderSlot, opts ...Option) *Agent {
	a := &Agent{
		tools:        tools,
		creds:        creds,
		slots:        slots,
		systemPrompt: SystemPrompt(),
		maxIter:      DefaultMaxIterations,
		retries:      DefaultToolProtocolRetries,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State is a step of the request state machine.
type State int

const (
	StatePlanning State = iota
	StateExecutingTool
	StateDone
	StateExhausted
	StateTerminalError
)

func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateExecutingTool:
		return "executing_tool"
	case StateDone:
		return "done"
	case StateExhausted:
		return "exhausted"
	default:
		return "terminal_error"
	}
}

// Run answers req.
func (a *Agent) Run(ctx context.Context, req Request) (resp *Response) {
	start := time.Now()
	r := &run{
		agent:   a,
		caller:  tool.Caller{UserID: req.UserID},
		benched: make(map[string]bool),
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Unhandled panic in agent run",
				"panic", rec,
				"stack", string(debug.Stack()))
			r.outcome = "panic"
			resp = &Response{Message: msgUnhandled}
		}
		if a.observer != nil {
			a.observer.ObserveRun(ctx, r.outcome, r.iterations, time.Since(start))
		}
	}()

	r.providers = a.resolveProviders(ctx, req.UserID)
	if len(r.providers) == 0 {
		slog.Info("No LLM provider available", "user", req.UserID)
		r.outcome = "no_provider"
		return &Response{Message: msgNoLLMKey}
	}

	specs, err := a.tools.Specs()
	if err != nil {
		slog.Error("Failed to load tool specs", "error", err)
		r.outcome = "terminal"
		return &Response{Message: msgUnhandled}
	}
	r.specs = specs
	r.conv = []model.Message{
		{Role: model.RoleSystem, Content: a.systemPrompt},
		{Role: model.RoleUser, Content: req.Message},
	}

	state := StatePlanning
	for {
		slog.Debug("Agent state", "state", state, "iteration", r.iterations)
		switch state {
		case StatePlanning:
			state = r.plan(ctx)
		case StateExecutingTool:
			state = r.execute(ctx)
		default:
			return r.response
		}
	}
}

// resolveProviders builds the providers the user can use, in priority order.
func (a *Agent) resolveProviders(ctx context.Context, userID string) []model.Provider {
	var providers []model.Provider
	for _, slot := range a.slots {
		key, ok, err := a.creds.Get(ctx, userID, slot.Name)
		if err != nil {
			slog.Warn("Provider key lookup failed", "provider", slot.Name, "error", err)
		}
		if !ok {
			key = slot.ServerKey
		}
		if key == "" {
			continue
		}

		p, err := slot.New(key)
		if err != nil {
			slog.Warn("Failed to create provider", "provider", slot.Name, "error", err)
			continue
		}
		providers = append(providers, p)
	}
	return providers
}

var errAllQuota = errors.New("all providers exhausted their quota")

// run is the state of one request. The conversation is owned by the run
// and only ever appended to.
type run struct {
	agent      *Agent
	caller     tool.Caller
	providers  []model.Provider
	benched    map[string]bool
	specs      []tool.Spec
	conv       []model.Message
	pending    *tool.ToolCall
	iterations int
	response   *Response
	outcome    string
}

func (r *run) finish(state State, outcome string, resp *Response) State {
	r.outcome = outcome
	r.response = resp
	return state
}

func (r *run) plan(ctx context.Context) State {
	if r.iterations >= r.agent.maxIter {
		slog.Info("Iteration limit reached", "iterations", r.iterations)
		return r.finish(StateExhausted, "iteration_limit", &Response{Message: msgIterationLimit})
	}

	resp, err := r.step(ctx, r.specs)
	if err != nil {
		return r.fail(err)
	}

	if !resp.HasToolCall() {
		text := resp.Text
		if text == "" {
			text = msgNoAnswer
		}
		return r.finish(StateDone, "answer", &Response{Message: text})
	}

	r.iterations++
	r.pending = resp.ToolCall
	r.conv = append(r.conv, model.Message{
		Role:     model.RoleAssistant,
		Content:  resp.Text,
		ToolCall: resp.ToolCall,
	})
	return StateExecutingTool
}

func (r *run) fail(err error) State {
	if errors.Is(err, errAllQuota) {
		return r.finish(StateExhausted, "quota_exhausted", &Response{Message: msgQuotaExhausted})
	}
	slog.Error("LLM provider failed", "error", err)
	return r.finish(StateTerminalError, "llm_error", &Response{Message: msgLLMError(model.ErrorMessage(err))})
}

// step asks providers in priority order until one answers. Quota-failed
// providers stay benched for the rest of the run.
func (r *run) step(ctx context.Context, specs []tool.Spec) (*model.Response, error) {
	var lastProtocolErr error

	for _, p := range r.providers {
		if r.benched[p.Name()] {
			continue
		}

		for attempt := 0; ; attempt++ {
			start := time.Now()
			resp, err := p.Step(ctx, r.conv, specs)
			if err == nil {
				r.observeStep(ctx, p.Name(), "ok", start)
				return resp, nil
			}

			class := model.Classify(err)
			r.observeStep(ctx, p.Name(), class.String(), start)

			if class == model.ClassQuota {
				slog.Warn("Provider quota exhausted, trying next", "provider", p.Name(), "error", err)
				r.benched[p.Name()] = true
				break
			}
			if class == model.ClassToolProtocol {
				lastProtocolErr = err
				if attempt < r.agent.retries {
					slog.Warn("Malformed tool call, retrying", "provider", p.Name(), "attempt", attempt+1, "error", err)
					continue
				}
				slog.Warn("Malformed tool calls persisted, trying next provider", "provider", p.Name(), "error", err)
				break
			}
			return nil, err
		}
	}

	if lastProtocolErr != nil {
		return nil, lastProtocolErr
	}
	return nil, errAllQuota
}

func (r *run) observeStep(ctx context.Context, provider, outcome string, start time.Time) {
	if r.agent.observer != nil {
		r.agent.observer.ObserveProviderStep(ctx, provider, outcome, time.Since(start))
	}
}

func (r *run) execute(ctx context.Context) State {
	call := *r.pending
	r.pending = nil

	result, err := r.agent.tools.Execute(ctx, call, r.caller)
	if err != nil {
		slog.Warn("Rejected tool call", "tool", call.Name, "arguments", call.Arguments, "error", err)
		return r.finish(StateTerminalError, "invalid_arguments", &Response{Message: msgInvalidArguments})
	}

	switch res := result.(type) {
	case *tool.SearchResults:
		r.appendToolResult(call, res.Content())
		return StatePlanning

	case *tool.Error:
		switch res.Kind {
		case tool.ErrorNotFound:
			return r.finish(StateTerminalError, "not_found",
				&Response{Message: msgNotFound(res.SubjectID, sourceName(call.Name))})
		case tool.ErrorNoCredential:
			return r.finish(StateTerminalError, "no_credential",
				&Response{Message: msgNoCredential(res.SubjectID)})
		default:
			r.appendToolResult(call, res.Content())
			return StatePlanning
		}

	case *tool.DataTable:
		r.appendToolResult(call, res.Content())
		return r.finish(StateDone, "data", &Response{
			Message: r.narrate(ctx, res.SourceLabel),
			Data: &Data{
				Table:  res.Rows,
				CSV:    res.CSV(),
				Source: res.SourceLabel,
			},
		})

	default:
		slog.Error("Unexpected tool result", "tool", call.Name, "type", fmt.Sprintf("%T", result))
		return r.finish(StateTerminalError, "terminal", &Response{Message: msgFetchFailed})
	}
}

// narrate asks for a closing summary with no tools on offer.
func (r *run) narrate(ctx context.Context, label string) string {
	resp, err := r.step(ctx, nil)
	if err != nil {
		slog.Warn("Narrative step failed", "error", err)
		return msgDataFallback(label)
	}
	if resp.Text == "" {
		return msgDataFallback(label)
	}
	return resp.Text
}

func (r *run) appendToolResult(call tool.ToolCall, content string) {
	r.conv = append(r.conv, model.Message{
		Role:       model.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	})
}

func sourceName(toolName string) string {
	switch tool.Name(toolName) {
	case tool.NameInegiData:
		return "INEGI"
	case tool.NameBanxicoData:
		return "Banxico"
	case tool.NameShcpData:
		return "SHCP"
	default:
		return "el catálogo"
	}
}
