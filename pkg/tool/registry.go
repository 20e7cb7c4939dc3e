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

package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Javier-Cancino/econonexo/pkg/catalog"
	"github.com/Javier-Cancino/econonexo/pkg/credential"
	"github.com/Javier-Cancino/econonexo/pkg/search"
	"github.com/Javier-Cancino/econonexo/pkg/source"
)

// Searcher resolves phrases to catalog candidates.
type Searcher interface {
	Search(ctx context.Context, query string, src catalog.Source) ([]search.Candidate, error)
}

// Labeler returns the short display name of a catalog entry.
type Labeler interface {
	LookupLabel(ctx context.Context, src catalog.Source, id string) (string, bool, error)
}

// Observer is told about every execution. outcome is "table", "search",
// an ErrorKind, or "invalid".
type Observer interface {
	ObserveTool(ctx context.Context, name Name, outcome string, elapsed time.Duration)
}

// Caller identifies who a tool runs for.
type Caller struct {
	UserID string
}

// Registry executes tool calls. It holds no per-request state and is safe
// for concurrent use.
type Registry struct {
	searcher Searcher
	sources  *source.Set
	creds    credential.Store
	labels   Labeler
	observer Observer
}

type Option func(*Registry)

func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

func NewRegistry(searcher Searcher, sources *source.Set, creds credential.Store, labels Labeler, opts ...Option) *Registry {
	r := &Registry{
		searcher: searcher,
		sources:  sources,
		creds:    creds,
		labels:   labels,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Specs returns the specs of every tool this registry executes.
func (r *Registry) Specs() ([]Spec, error) {
	return Specs()
}

// Execute decodes and runs call. Domain failures come back as *Error
// results; the returned error is reserved for ErrUnknownTool and
// ErrInvalidArguments, which are detected before any network or credential
// access.
func (r *Registry) Execute(ctx context.Context, call ToolCall, caller Caller) (Result, error) {
	start := time.Now()

	decoded, err := Decode(call)
	if err != nil {
		r.observe(ctx, Name(call.Name), "invalid", start)
		return nil, err
	}

	var result Result
	switch c := decoded.(type) {
	case SearchIndicator:
		result = r.searchIndicator(ctx, c)
	case InegiData:
		result = r.fetchByID(ctx, caller, catalog.SourceINEGI, r.sources.INEGI, c.IndicatorID, nil)
	case BanxicoData:
		var dates *source.DateRange
		if c.StartDate != "" {
			dates = &source.DateRange{Start: c.StartDate, End: c.EndDate}
		}
		result = r.fetchByID(ctx, caller, catalog.SourceBanxico, r.sources.Banxico, c.SeriesID, dates)
	case ShcpData:
		result = r.fetchDataset(ctx, c.DatasetID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	r.observe(ctx, decoded.ToolName(), outcome(result), start)
	return result, nil
}

func (r *Registry) searchIndicator(ctx context.Context, c SearchIndicator) Result {
	src, err := catalog.ParseSource(c.Source)
	if err != nil {
		return &Error{Kind: ErrorFetchFailed, SubjectID: c.Source}
	}

	candidates, err := r.searcher.Search(ctx, c.Query, src)
	if err != nil {
		slog.Error("Catalog search failed", "source", src, "query", c.Query, "error", err)
		return &Error{Kind: ErrorFetchFailed}
	}

	slog.Debug("Catalog search results", "source", src, "query", c.Query, "matches", len(candidates))
	return &SearchResults{Candidates: candidates}
}

func (r *Registry) fetchByID(ctx context.Context, caller Caller, src catalog.Source, adapter source.Adapter, id string, dates *source.DateRange) Result {
	token, ok, err := r.creds.Get(ctx, caller.UserID, string(src))
	if err != nil {
		slog.Warn("Credential lookup failed", "source", src, "error", err)
	}
	if !ok {
		return &Error{Kind: ErrorNoCredential, SubjectID: string(src)}
	}

	table, err := adapter.Fetch(ctx, id, token, dates)
	switch {
	case errors.Is(err, source.ErrNotFound):
		slog.Info("Identifier not found", "source", src, "id", id)
		return &Error{Kind: ErrorNotFound, SubjectID: id}
	case err != nil:
		slog.Warn("Data fetch failed", "source", src, "id", id, "error", err)
		return &Error{Kind: ErrorFetchFailed, SubjectID: id}
	}

	return &DataTable{Rows: table.All(), SourceLabel: r.label(ctx, src, id)}
}

func (r *Registry) label(ctx context.Context, src catalog.Source, id string) string {
	name := id
	if r.labels != nil {
		found, ok, err := r.labels.LookupLabel(ctx, src, id)
		switch {
		case err != nil:
			slog.Warn("Label lookup failed", "source", src, "id", id, "error", err)
		case ok:
			name = found
		}
	}
	return src.DisplayName() + " - " + name
}

func (r *Registry) fetchDataset(ctx context.Context, datasetID string) Result {
	table, err := r.sources.SHCP.Fetch(ctx, datasetID, "", nil)
	if err != nil {
		slog.Warn("SHCP fetch failed", "dataset", datasetID, "error", err)
		return &Error{Kind: ErrorFetchFailed, SubjectID: datasetID}
	}
	return &DataTable{Rows: table.All(), SourceLabel: "SHCP"}
}

func (r *Registry) observe(ctx context.Context, name Name, outcome string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveTool(ctx, name, outcome, time.Since(start))
	}
}

func outcome(result Result) string {
	switch res := result.(type) {
	case *DataTable:
		return "table"
	case *SearchResults:
		return "search"
	case *Error:
		return string(res.Kind)
	default:
		return "unknown"
	}
}
