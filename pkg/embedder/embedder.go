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

// Package embedder turns search queries into vectors for semantic ranking.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Javier-Cancino/econonexo/pkg/config"
	"github.com/Javier-Cancino/econonexo/pkg/httpclient"
)

// ErrUnavailable wraps every failure to produce an embedding: transport
// errors, API errors, empty responses and missing configuration.
var ErrUnavailable = errors.New("embedding service unavailable")

// Embedder produces a vector for one text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the model name, used in logs.
	Model() string
}

// New builds the embedder described by cfg. It returns (nil, nil) when no
// provider is configured; callers then run lexical-only search.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	client := httpclient.New(
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithMaxRetries(2),
		httpclient.WithBaseDelay(500*time.Millisecond),
	)

	switch cfg.Provider {
	case "":
		return nil, nil
	case "voyage":
		return NewOpenAICompatible(client, cfg.BaseURL, cfg.APIKey, cfg.Model, "query")
	case "openai":
		return NewOpenAICompatible(client, cfg.BaseURL, cfg.APIKey, cfg.Model, "")
	case "ollama":
		return NewOllama(client, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}
