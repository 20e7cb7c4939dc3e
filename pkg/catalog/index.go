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

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/es"
	bquery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/philippgille/chromem-go"
)

const textField = "text"

// Index is the process-wide in-memory Ranker. Each source is materialized
// from the Store on first use, at most once, and never refreshed: callers
// restart the process to pick up catalog changes.
//
// Index is safe for concurrent use.
type Index struct {
	store Store

	mu     sync.RWMutex
	shards map[Source]*shard
}

type shard struct {
	entries  []Entry
	position map[string]int
	text     bleve.Index
	vectors  *chromem.Collection
}

func NewIndex(store Store) *Index {
	return &Index{
		store:  store,
		shards: make(map[Source]*shard),
	}
}

// Warm builds every source eagerly, e.g. at server start.
func (x *Index) Warm(ctx context.Context) error {
	for _, src := range Sources {
		if _, err := x.shard(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

// shard returns the built shard for src, building it under the write lock
// if no other goroutine did so first. A failed build is not cached.
func (x *Index) shard(ctx context.Context, src Source) (*shard, error) {
	x.mu.RLock()
	s, ok := x.shards[src]
	x.mu.RUnlock()
	if ok {
		return s, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if s, ok := x.shards[src]; ok {
		return s, nil
	}

	start := time.Now()
	entries, err := x.store.AllEntries(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s catalog: %w", src, err)
	}

	s, err = buildShard(ctx, src, entries)
	if err != nil {
		return nil, err
	}
	x.shards[src] = s

	slog.Info("Catalog index built",
		"source", src,
		"entries", len(entries),
		"embedded", s.vectors.Count(),
		"duration", time.Since(start))
	return s, nil
}

func buildShard(ctx context.Context, src Source, entries []Entry) (*shard, error) {
	mapping := bleve.NewIndexMapping()
	mapping.DefaultAnalyzer = es.AnalyzerName

	textIndex, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s text index: %w", src, err)
	}

	batch := textIndex.NewBatch()
	position := make(map[string]int, len(entries))
	var docs []chromem.Document
	for i, e := range entries {
		position[e.ID] = i
		if err := batch.Index(e.ID, map[string]any{textField: e.Text}); err != nil {
			return nil, fmt.Errorf("failed to index %s entry %s: %w", src, e.ID, err)
		}
		if len(e.Embedding) > 0 {
			docs = append(docs, chromem.Document{ID: e.ID, Content: e.Text, Embedding: e.Embedding})
		}
	}
	if err := textIndex.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to index %s catalog: %w", src, err)
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(string(src), nil, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s vector collection: %w", src, err)
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("failed to add %s embeddings: %w", src, err)
		}
	}

	return &shard{
		entries:  entries,
		position: position,
		text:     textIndex,
		vectors:  collection,
	}, nil
}

var errNoEmbeddingFunc = errors.New("catalog vectors are precomputed; no embedding function")

// precomputedOnly is the chromem embedding func. Every document and query
// already carries its vector, so it is never expected to run.
func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

func (x *Index) LexicalRank(ctx context.Context, src Source, query string, limit int) ([]Entry, error) {
	s, err := x.shard(ctx, src)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	match := bleve.NewMatchQuery(query)
	match.SetField(textField)
	match.SetOperator(bquery.MatchQueryOperatorAnd)

	req := bleve.NewSearchRequestOptions(match, limit, 0, false)
	res, err := s.text.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}

	results := make([]Entry, 0, limit)
	seen := make(map[string]bool, limit)
	for _, hit := range res.Hits {
		if i, ok := s.position[hit.ID]; ok && !seen[hit.ID] {
			seen[hit.ID] = true
			results = append(results, s.entries[i].withoutVector())
		}
	}

	needle := Normalize(query)
	for _, e := range s.entries {
		if len(results) >= limit {
			break
		}
		if !seen[e.ID] && strings.Contains(Normalize(e.Text), needle) {
			seen[e.ID] = true
			results = append(results, e.withoutVector())
		}
	}
	return results, nil
}

func (x *Index) SemanticRank(ctx context.Context, src Source, vector []float32, limit int) ([]Entry, error) {
	s, err := x.shard(ctx, src)
	if err != nil {
		return nil, err
	}

	n := min(limit, s.vectors.Count())
	if n <= 0 {
		return nil, nil
	}

	found, err := s.vectors.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]Entry, 0, len(found))
	for _, r := range found {
		results = append(results, Entry{ID: r.ID, Text: r.Content})
	}
	return results, nil
}

func (e Entry) withoutVector() Entry {
	return Entry{ID: e.ID, Text: e.Text}
}

var _ Ranker = (*Index)(nil)
