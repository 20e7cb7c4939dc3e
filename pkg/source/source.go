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

// Package source fetches economic series from the public data providers and
// normalizes them into a header-plus-rows table.
package source

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/Javier-Cancino/econonexo/pkg/config"
	"github.com/Javier-Cancino/econonexo/pkg/httpclient"
)

var (
	// ErrNotFound reports an identifier the provider does not know.
	ErrNotFound = errors.New("identifier not found")

	// ErrEmpty reports a known identifier with no observations.
	ErrEmpty = errors.New("no observations")
)

// Table is a normalized result. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// All returns the header followed by the data rows. The header is copied;
// adapters share it across responses.
func (t *Table) All() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, slices.Clone(t.Header))
	return append(out, t.Rows...)
}

// DateRange bounds a series query. Dates are YYYY-MM-DD.
type DateRange struct {
	Start string
	End   string
}

// Adapter fetches one series or dataset by identifier. The credential is
// the caller's provider token and may be empty for public datasets.
type Adapter interface {
	Fetch(ctx context.Context, id, credential string, dates *DateRange) (*Table, error)
}

// Set groups the adapters for every provider.
type Set struct {
	INEGI   Adapter
	Banxico Adapter
	SHCP    Adapter
}

// NewSet builds the adapters from configuration. Quota and server errors
// are retried by the shared client.
func NewSet(cfg config.SourcesConfig) *Set {
	return &Set{
		INEGI:   NewINEGI(newClient(cfg.INEGI.Timeout), cfg.INEGI.BaseURL),
		Banxico: NewBanxico(newClient(cfg.Banxico.Timeout), cfg.Banxico.BaseURL),
		SHCP:    NewSHCP(newClient(cfg.SHCP.Timeout), cfg.SHCP.BaseURL, cfg.SHCPRowLimit),
	}
}

func newClient(timeout time.Duration) *httpclient.Client {
	return httpclient.New(
		httpclient.WithTimeout(timeout),
		httpclient.WithMaxRetries(2),
	)
}
