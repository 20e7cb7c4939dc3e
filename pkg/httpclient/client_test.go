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

package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		options  []Option
		validate func(t *testing.T, client *Client)
	}{
		{
			name: "defaults",
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 3, client.maxRetries)
				assert.Equal(t, time.Second, client.baseDelay)
				assert.Equal(t, 60*time.Second, client.client.Timeout)
				assert.NotNil(t, client.strategyFunc)
			},
		},
		{
			name:    "timeout",
			options: []Option{WithTimeout(5 * time.Second)},
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 5*time.Second, client.client.Timeout)
			},
		},
		{
			name:    "custom_http_client",
			options: []Option{WithHTTPClient(&http.Client{Timeout: 30 * time.Second}), WithMaxRetries(1)},
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 30*time.Second, client.client.Timeout)
				assert.Equal(t, 1, client.maxRetries)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, New(tt.options...))
		})
	}
}

func TestRetryStrategies(t *testing.T) {
	tests := []struct {
		status    int
		def       RetryStrategy
		failQuota RetryStrategy
	}{
		{http.StatusTooManyRequests, SmartRetry, NoRetry},
		{http.StatusServiceUnavailable, SmartRetry, SmartRetry},
		{http.StatusBadGateway, ConservativeRetry, ConservativeRetry},
		{http.StatusNotFound, NoRetry, NoRetry},
		{http.StatusBadRequest, NoRetry, NoRetry},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.def, DefaultRetryStrategy(tt.status))
			assert.Equal(t, tt.failQuota, FailFastOnQuota(tt.status))
		})
	}
}

func TestDo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := New().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestDo_StatusErrorKeepsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = New(WithRetryStrategy(FailFastOnQuota)).Do(req)
	require.Error(t, err)

	statusErr, ok := AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "quota exceeded")
}

func TestDo_RetriesServerErrorsWithBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(body))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodPost, server.URL, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	resp, err := New(WithBaseDelay(time.Millisecond)).Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_GivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = New(WithBaseDelay(time.Millisecond)).Do(req)
	require.Error(t, err)

	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, http.StatusInternalServerError, retryErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = New().Do(req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_TransportErrorOmitsPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/series/secret-token?key=abc", nil)
	require.NoError(t, err)

	_, err = New(WithMaxRetries(0)).Do(req)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.NotContains(t, err.Error(), "key=abc")
	assert.Contains(t, err.Error(), baseURL)
}

func TestDo_TimeoutStaysDetectable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/slow", nil)
	require.NoError(t, err)

	_, err = New(WithTimeout(20 * time.Millisecond)).Do(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, err.Error(), "/slow")
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	assert.Zero(t, parseRetryAfter(h))

	h.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, parseRetryAfter(h))

	h.Set("Retry-After", "soon")
	assert.Zero(t, parseRetryAfter(h))
}
