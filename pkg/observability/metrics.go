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
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics records search, tool, provider, agent and HTTP measurements and
// serves them in the Prometheus exposition format. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *promclient.Registry
	provider *sdkmetric.MeterProvider

	searches metric.Int64Counter

	toolCalls    metric.Int64Counter
	toolDuration metric.Float64Histogram

	providerSteps    metric.Int64Counter
	providerDuration metric.Float64Histogram

	runs          metric.Int64Counter
	runDuration   metric.Float64Histogram
	runIterations metric.Int64Histogram

	httpRequests metric.Int64Counter
	httpDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on a private Prometheus registry.
func NewMetrics() (*Metrics, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(MeterName)

	m := &Metrics{registry: registry, provider: provider}
	b := builder{meter: meter}

	m.searches = b.counter("catalog_searches_total", "Catalog searches by source and ranking mode")
	m.toolCalls = b.counter("tool_calls_total", "Tool executions by tool and outcome")
	m.toolDuration = b.histogram("tool_duration_seconds", "Tool execution duration in seconds")
	m.providerSteps = b.counter("llm_steps_total", "LLM provider steps by provider and outcome")
	m.providerDuration = b.histogram("llm_step_duration_seconds", "LLM provider step duration in seconds")
	m.runs = b.counter("agent_runs_total", "Agent runs by outcome")
	m.runDuration = b.histogram("agent_run_duration_seconds", "Agent run duration in seconds")
	m.httpRequests = b.counter("http_requests_total", "HTTP requests by method, route and status")
	m.httpDuration = b.histogram("http_request_duration_seconds", "HTTP request duration in seconds")

	if b.err == nil {
		m.runIterations, b.err = meter.Int64Histogram(
			metricPrefix+"agent_run_iterations",
			metric.WithDescription("Tool-calling iterations per agent run"),
			metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 10),
		)
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// builder keeps the first instrument error so registration reads linearly.
type builder struct {
	meter metric.Meter
	err   error
}

func (b *builder) counter(name, desc string) metric.Int64Counter {
	if b.err != nil {
		return nil
	}
	c, err := b.meter.Int64Counter(metricPrefix+name, metric.WithDescription(desc))
	if err != nil {
		b.err = fmt.Errorf("failed to create %s: %w", name, err)
	}
	return c
}

func (b *builder) histogram(name, desc string) metric.Float64Histogram {
	if b.err != nil {
		return nil
	}
	h, err := b.meter.Float64Histogram(metricPrefix+name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		b.err = fmt.Errorf("failed to create %s: %w", name, err)
	}
	return h
}

// Handler serves the registry. Without metrics it answers 503.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics not enabled"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() promclient.Gatherer {
	return m.registry
}
