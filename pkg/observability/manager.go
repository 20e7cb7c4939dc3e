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

// Package observability wires OpenTelemetry tracing and Prometheus metrics
// for the server and the packages it drives.
package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/Javier-Cancino/econonexo/pkg/config"
)

// Manager owns the tracer provider and the metrics registry for one process.
type Manager struct {
	mu             sync.RWMutex
	tracerProvider trace.TracerProvider
	metrics        *Metrics
}

// NewManager initializes what cfg enables.
func NewManager(ctx context.Context, cfg config.ObservabilityConfig, version string) (*Manager, error) {
	tp, err := InitTracer(ctx, cfg.ServiceName, version, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	m := &Manager{tracerProvider: tp}
	if cfg.Metrics.Enabled {
		m.metrics, err = NewMetrics()
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Manager) Tracer(name string) trace.Tracer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tracerProvider.Tracer(name)
}

// Metrics returns nil when metrics are disabled. The nil value is usable.
func (m *Manager) Metrics() *Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}

// Shutdown flushes pending spans.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spt, ok := m.tracerProvider.(interface{ Shutdown(context.Context) error }); ok {
		if err := spt.Shutdown(ctx); err != nil {
			return err
		}
	}
	if m.metrics != nil {
		return m.metrics.provider.Shutdown(ctx)
	}
	return nil
}
