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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javier-Cancino/econonexo/pkg/config"
	"github.com/Javier-Cancino/econonexo/pkg/httpclient"
)

func TestNew(t *testing.T) {
	e, err := New(config.EmbedderConfig{})
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = New(config.EmbedderConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", e.Model())

	_, err = New(config.EmbedderConfig{Provider: "voyage", Model: "voyage-3-lite"})
	assert.Error(t, err, "missing API key")

	_, err = New(config.EmbedderConfig{Provider: "cohere"})
	assert.Error(t, err)
}

func TestOpenAICompatible_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer pa-key", r.Header.Get("Authorization"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "voyage-3-lite", req.Model)
		assert.Equal(t, []string{"tipo de cambio"}, req.Input)
		assert.Equal(t, "query", req.InputType)

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3],"index":0}],"model":"voyage-3-lite"}`))
	}))
	defer server.Close()

	e, err := NewOpenAICompatible(httpclient.New(), server.URL+"/v1/", "pa-key", "voyage-3-lite", "query")
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "tipo de cambio")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOpenAICompatible_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key"}}`, "Incorrect API key"},
		{"voyage detail", http.StatusBadRequest, `{"detail":"model not found"}`, "model not found"},
		{"empty data", http.StatusOK, `{"data":[]}`, "empty embedding"},
		{"garbage", http.StatusOK, `not json`, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			e, err := NewOpenAICompatible(httpclient.New(), server.URL, "k", "m", "")
			require.NoError(t, err)

			_, err = e.Embed(context.Background(), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestOllama_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"embedding":[1,2]}`))
	}))
	defer server.Close()

	vec, err := NewOllama(httpclient.New(), server.URL, "nomic-embed-text").Embed(context.Background(), "pib")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)
}

type slowEmbedder struct {
	calls atomic.Int32
}

func (s *slowEmbedder) Model() string { return "slow" }

func (s *slowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls.Add(1)
	time.Sleep(50 * time.Millisecond)
	return []float32{1, 2, 3}, nil
}

func TestDeduplicated(t *testing.T) {
	inner := &slowEmbedder{}
	d := NewDeduplicated(inner)

	var wg sync.WaitGroup
	results := make([][]float32, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vec, err := d.Embed(context.Background(), "inflación")
			assert.NoError(t, err)
			results[i] = vec
		}(i)
	}
	wg.Wait()

	assert.Less(t, inner.calls.Load(), int32(8))
	results[0][0] = 42
	assert.Equal(t, float32(1), results[1][0], "callers get independent copies")
	assert.Equal(t, "slow", d.Model())
}
