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

// Package search resolves free-text phrases into catalog identifiers by
// fusing a lexical and a semantic ranking with Reciprocal Rank Fusion.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Javier-Cancino/econonexo/pkg/catalog"
	"github.com/Javier-Cancino/econonexo/pkg/embedder"
)

const (
	// RRFConstant damps the contribution of top ranks: 1/(60+rank).
	RRFConstant = 60

	// CandidateLimit caps each input ranking.
	CandidateLimit = 50

	// ResultLimit caps the fused ranking.
	ResultLimit = 10
)

// Candidate is one search result.
type Candidate struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Mode reports which rankings contributed to a search.
type Mode string

const (
	ModeHybrid  Mode = "hybrid"
	ModeLexical Mode = "lexical"
)

// Observer receives one call per search. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveSearch(ctx context.Context, src catalog.Source, mode Mode, results int)
}

// Engine runs hybrid catalog search. The embedder is optional; without one
// every search is lexical-only.
type Engine struct {
	ranker   catalog.Ranker
	embedder embedder.Embedder
	observer Observer
}

type Option func(*Engine)

// WithEmbedder enables semantic ranking.
func WithEmbedder(e embedder.Embedder) Option {
	return func(eng *Engine) {
		eng.embedder = e
	}
}

func WithObserver(o Observer) Option {
	return func(eng *Engine) {
		eng.observer = o
	}
}

func NewEngine(ranker catalog.Ranker, opts ...Option) *Engine {
	e := &Engine{ranker: ranker}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns at most ResultLimit candidates for query. Only a lexical
// ranking failure is returned as an error; any semantic failure degrades the
// search to lexical-only and is logged.
func (e *Engine) Search(ctx context.Context, query string, src catalog.Source) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	lexical, err := e.ranker.LexicalRank(ctx, src, query, CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("lexical ranking failed: %w", err)
	}

	mode := ModeHybrid
	semantic, err := e.semanticRank(ctx, query, src)
	if err != nil {
		mode = ModeLexical
		slog.Warn("Semantic search unavailable, using lexical ranking only",
			"source", src,
			"error", err)
		semantic = nil
	}

	results := Fuse(lexical, semantic, ResultLimit)

	slog.Debug("Catalog search",
		"source", src,
		"query", query,
		"mode", mode,
		"lexical", len(lexical),
		"semantic", len(semantic),
		"results", len(results))
	if e.observer != nil {
		e.observer.ObserveSearch(ctx, src, mode, len(results))
	}
	return results, nil
}

var errNoEmbedder = errors.New("no embedder configured")

func (e *Engine) semanticRank(ctx context.Context, query string, src catalog.Source) ([]catalog.Entry, error) {
	if e.embedder == nil {
		return nil, errNoEmbedder
	}
	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.ranker.SemanticRank(ctx, src, vector, CandidateLimit)
}

// Fuse merges two rankings with Reciprocal Rank Fusion. Each id scores
// sum(1/(RRFConstant+rank)) over the rankings it appears in, ranks being
// 1-indexed. Equal scores keep first-appearance order, lexical list first,
// so the output is deterministic. Descriptions come from the lexical list
// when both lists carry the id.
func Fuse(lexical, semantic []catalog.Entry, limit int) []Candidate {
	type fused struct {
		candidate Candidate
		score     float64
	}

	byID := make(map[string]int, len(lexical)+len(semantic))
	var all []fused

	add := func(list []catalog.Entry) {
		for i, entry := range list {
			contribution := 1.0 / float64(RRFConstant+i+1)
			if at, ok := byID[entry.ID]; ok {
				all[at].score += contribution
				continue
			}
			byID[entry.ID] = len(all)
			all = append(all, fused{
				candidate: Candidate{ID: entry.ID, Description: entry.Text},
				score:     contribution,
			})
		}
	}
	add(lexical)
	add(semantic)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})

	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]Candidate, len(all))
	for i, f := range all {
		out[i] = f.candidate
	}
	return out
}
