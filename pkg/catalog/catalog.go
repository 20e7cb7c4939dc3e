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

// Package catalog holds the indicator catalogs that map short source
// identifiers to descriptive text.
//
// A Store serves rows (from JSON files, the embedded seed or SQL). A Ranker
// orders rows for a query, either in process (Index: bleve full-text plus
// chromem vectors) or inside Postgres (PostgresRanker: ts_rank plus
// pgvector).
package catalog

import (
	"context"
	"fmt"
	"strings"
)

// Source identifies a catalog-backed data source.
type Source string

const (
	SourceINEGI   Source = "inegi"
	SourceBanxico Source = "banxico"
)

// Sources lists every catalog-backed source.
var Sources = []Source{SourceINEGI, SourceBanxico}

func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceINEGI:
		return SourceINEGI, nil
	case SourceBanxico:
		return SourceBanxico, nil
	default:
		return "", fmt.Errorf("unknown catalog source %q (valid: inegi, banxico)", s)
	}
}

// DisplayName is the name shown to users ("INEGI", "Banxico").
func (s Source) DisplayName() string {
	switch s {
	case SourceINEGI:
		return "INEGI"
	case SourceBanxico:
		return "Banxico"
	default:
		return string(s)
	}
}

// Entry is one catalog row. Embedding is nil for rows not embedded yet.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Store reads catalog rows.
type Store interface {
	// LookupLabel returns the short human-readable name of id. A miss is
	// ("", false, nil).
	LookupLabel(ctx context.Context, src Source, id string) (string, bool, error)

	// AllEntries returns every row of src in storage order.
	AllEntries(ctx context.Context, src Source) ([]Entry, error)
}

// Ranker orders catalog rows for a query. Returned entries carry ID and
// Text; Embedding is not populated.
type Ranker interface {
	// LexicalRank returns at most limit rows by descending full-text
	// relevance, followed by rows that only match as a substring of the
	// diacritic-normalized query.
	LexicalRank(ctx context.Context, src Source, query string, limit int) ([]Entry, error)

	// SemanticRank returns at most limit embedded rows by ascending cosine
	// distance to vector.
	SemanticRank(ctx context.Context, src Source, vector []float32, limit int) ([]Entry, error)
}

// ShortName derives the display name from catalog text. INEGI descriptions
// are "/"-separated paths and Banxico titles are "."-separated sentences;
// the first segment is the name.
func ShortName(src Source, text string) string {
	sep := "/"
	if src == SourceBanxico {
		sep = "."
	}
	name, _, _ := strings.Cut(text, sep)
	return strings.TrimSpace(name)
}
