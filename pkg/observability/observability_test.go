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
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javier-Cancino/econonexo/pkg/catalog"
	"github.com/Javier-Cancino/econonexo/pkg/config"
	"github.com/Javier-Cancino/econonexo/pkg/search"
	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Observers(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.ObserveSearch(ctx, catalog.SourceBanxico, search.ModeHybrid, 10)
	m.ObserveTool(ctx, tool.NameBanxicoData, "table", 120*time.Millisecond)
	m.ObserveProviderStep(ctx, "groq", "quota", 80*time.Millisecond)
	m.ObserveRun(ctx, "data", 2, time.Second)

	body := scrape(t, m)
	assert.Contains(t, body, "econonexo_catalog_searches")
	assert.Contains(t, body, `source="banxico"`)
	assert.Contains(t, body, `mode="hybrid"`)
	assert.Contains(t, body, "econonexo_tool_calls")
	assert.Contains(t, body, `tool="get_banxico_data"`)
	assert.Contains(t, body, "econonexo_llm_steps")
	assert.Contains(t, body, `provider="groq"`)
	assert.Contains(t, body, "econonexo_agent_runs")
	assert.Contains(t, body, "econonexo_agent_run_iterations")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.ObserveSearch(ctx, catalog.SourceINEGI, search.ModeLexical, 0)
		m.ObserveTool(ctx, tool.NameInegiData, "not_found", time.Millisecond)
		m.ObserveProviderStep(ctx, "openai", "ok", time.Millisecond)
		m.ObserveRun(ctx, "answer", 0, time.Millisecond)
		m.RecordHTTPRequest(ctx, http.MethodGet, "/health", 200, time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	mgr, err := NewManager(context.Background(), config.ObservabilityConfig{
		ServiceName: "test",
		Metrics:     config.MetricsConfig{Enabled: true},
	}, "dev")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mgr.HTTPMiddleware)
	r.Get("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/"+id, nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}

	body := scrape(t, mgr.Metrics())
	assert.Contains(t, body, `route="/api/items/{id}"`)
	assert.Contains(t, body, `status="202"`)
	assert.NotContains(t, body, `route="/api/items/1"`)

	require.NoError(t, mgr.Shutdown(context.Background()))
}

func TestNoopManager(t *testing.T) {
	mgr := NoopManager()
	assert.Nil(t, mgr.Metrics())

	handler := mgr.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "ok", rec.Body.String())
	assert.NoError(t, mgr.Shutdown(context.Background()))
}
