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

// Package httpclient wraps net/http with status-aware retries.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type RetryStrategy int

const (
	NoRetry RetryStrategy = iota
	ConservativeRetry
	SmartRetry
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 64 << 10

type RetryStrategyFunc func(statusCode int) RetryStrategy

type Client struct {
	client       *http.Client
	maxRetries   int
	baseDelay    time.Duration
	strategyFunc RetryStrategyFunc
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client = &http.Client{Timeout: timeout, Transport: c.client.Transport}
	}
}

func WithMaxRetries(max int) Option {
	return func(c *Client) {
		c.maxRetries = max
	}
}

func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = delay
	}
}

func WithRetryStrategy(strategyFunc RetryStrategyFunc) Option {
	return func(c *Client) {
		c.strategyFunc = strategyFunc
	}
}

func New(opts ...Option) *Client {
	client := &Client{
		client:       &http.Client{Timeout: 60 * time.Second},
		maxRetries:   3,
		baseDelay:    time.Second,
		strategyFunc: DefaultRetryStrategy,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// DefaultRetryStrategy retries rate limits with backoff and transient server
// errors a couple of times.
func DefaultRetryStrategy(statusCode int) RetryStrategy {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusServiceUnavailable:
		return SmartRetry
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusGatewayTimeout:
		return ConservativeRetry
	default:
		return NoRetry
	}
}

// FailFastOnQuota never retries 429 so the caller can move to another
// provider immediately. Server errors still get a quick retry.
func FailFastOnQuota(statusCode int) RetryStrategy {
	if statusCode == http.StatusTooManyRequests {
		return NoRetry
	}
	return DefaultRetryStrategy(statusCode)
}

// Do sends req, retrying according to the strategy. A 2xx response is
// returned as is. Any other final status is returned as a *StatusError (or a
// *RetryableError wrapping one when retries ran out) with the body consumed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	for attempt := 0; ; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to recreate request body for retry: %w", err)
			}
			req.Body = body
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, redactURLError(err, req.URL)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		statusErr := newStatusError(resp)
		strategy := c.strategyFunc(resp.StatusCode)
		if strategy == NoRetry {
			return nil, statusErr
		}

		delay := c.calculateDelay(strategy, attempt, statusErr.Header)
		if attempt >= c.maxRetries || delay <= 0 {
			return nil, &RetryableError{
				StatusCode: statusErr.StatusCode,
				Message:    fmt.Sprintf("gave up after %d attempts", attempt+1),
				RetryAfter: delay,
				Err:        statusErr,
			}
		}

		slog.Debug("Retrying HTTP request",
			"url", origin(req.URL),
			"status", statusErr.StatusCode,
			"delay", delay,
			"attempt", attempt+1)

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// origin keeps scheme and host only. Some APIs carry credentials in the
// path or query.
func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// redactURLError rewrites a transport error so it names the origin instead
// of the full request URL. The cause stays reachable for errors.Is and
// timeout checks.
func redactURLError(err error, u *url.URL) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{Op: urlErr.Op, URL: origin(u), Err: urlErr.Err}
}

func (c *Client) calculateDelay(strategy RetryStrategy, attempt int, header http.Header) time.Duration {
	switch strategy {
	case SmartRetry:
		if after := parseRetryAfter(header); after > 0 {
			return after
		}
		exponential := time.Duration(math.Pow(2, float64(attempt))) * c.baseDelay
		return exponential + exponential/10

	case ConservativeRetry:
		if attempt >= 2 {
			return 0
		}
		return time.Duration(1+attempt) * c.baseDelay

	default:
		return 0
	}
}

func parseRetryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		return time.Until(at)
	}
	return 0
}

func newStatusError(resp *http.Response) *StatusError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
