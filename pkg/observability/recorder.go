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

package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Javier-Cancino/econonexo/pkg/agent"
	"github.com/Javier-Cancino/econonexo/pkg/catalog"
	"github.com/Javier-Cancino/econonexo/pkg/search"
	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

func (m *Metrics) ObserveSearch(ctx context.Context, src catalog.Source, mode search.Mode, results int) {
	if m == nil {
		return
	}
	m.searches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", string(src)),
		attribute.String("mode", string(mode)),
		attribute.Bool("empty", results == 0),
	))
}

func (m *Metrics) ObserveTool(ctx context.Context, name tool.Name, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", string(name)),
		attribute.String("outcome", outcome),
	)
	m.toolCalls.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) ObserveProviderStep(ctx context.Context, provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	m.providerSteps.Add(ctx, 1, attrs)
	m.providerDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) ObserveRun(ctx context.Context, outcome string, iterations int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.runs.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, elapsed.Seconds(), attrs)
	m.runIterations.Record(ctx, int64(iterations), attrs)
}

// RecordHTTPRequest records one served request. route is the router
// pattern, not the raw path.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, elapsed.Seconds(), attrs)
}

var (
	_ search.Observer = (*Metrics)(nil)
	_ tool.Observer   = (*Metrics)(nil)
	_ agent.Observer  = (*Metrics)(nil)
)
