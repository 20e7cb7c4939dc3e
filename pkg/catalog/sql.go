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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Table names one catalog table and its text column.
type Table struct {
	Name       string
	TextColumn string
}

// DefaultTables are the tables written by the ingestion jobs.
func DefaultTables() map[Source]Table {
	return map[Source]Table{
		SourceINEGI:   {Name: "inegi_indicadores", TextColumn: "descripcion"},
		SourceBanxico: {Name: "banxico_series", TextColumn: "titulo"},
	}
}

// SQLStore reads catalog tables through database/sql. Embeddings are
// stored as pgvector columns on Postgres and as JSON arrays elsewhere; both
// render as "[x,y,...]" text.
type SQLStore struct {
	db      *sql.DB
	dialect string
	tables  map[Source]Table
}

// NewSQLStore creates a store. dialect is "postgres", "mysql" or "sqlite".
func NewSQLStore(db *sql.DB, dialect string, tables map[Source]Table) (*SQLStore, error) {
	switch dialect {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
	if tables == nil {
		tables = DefaultTables()
	}
	return &SQLStore{db: db, dialect: dialect, tables: tables}, nil
}

func (s *SQLStore) table(src Source) (Table, error) {
	t, ok := s.tables[src]
	if !ok {
		return Table{}, fmt.Errorf("no catalog table configured for %s", src)
	}
	return t, nil
}

func (s *SQLStore) placeholder() string {
	if s.dialect == "postgres" {
		return "$1"
	}
	return "?"
}

func (s *SQLStore) LookupLabel(ctx context.Context, src Source, id string) (string, bool, error) {
	t, err := s.table(src)
	if err != nil {
		return "", false, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", t.TextColumn, t.Name, s.placeholder())

	var text sql.NullString
	err = s.db.QueryRowContext(ctx, query, id).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up %s %s: %w", src, id, err)
	}

	name := ShortName(src, text.String)
	return name, name != "", nil
}

func (s *SQLStore) AllEntries(ctx context.Context, src Source) ([]Entry, error) {
	t, err := s.table(src)
	if err != nil {
		return nil, err
	}

	embeddingExpr := "embedding"
	if s.dialect == "postgres" {
		embeddingExpr = "embedding::text"
	}
	query := fmt.Sprintf("SELECT id, %s, %s FROM %s ORDER BY id", t.TextColumn, embeddingExpr, t.Name)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s catalog: %w", src, err)
	}
	defer rows.Close()

	var (
		entries []Entry
		skipped int
	)
	for rows.Next() {
		var (
			id        string
			text      sql.NullString
			embedding sql.NullString
		)
		if err := rows.Scan(&id, &text, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan %s catalog row: %w", src, err)
		}

		entry := Entry{ID: id, Text: text.String}
		if embedding.Valid && embedding.String != "" {
			vec, err := ParseVector(embedding.String)
			if err != nil {
				skipped++
			} else {
				entry.Embedding = vec
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s catalog: %w", src, err)
	}

	if skipped > 0 {
		slog.Warn("Ignored unparsable catalog embeddings", "source", src, "rows", skipped)
	}
	return entries, nil
}

// ParseVector decodes "[x,y,...]" text into a vector.
func ParseVector(s string) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(s), &vec); err != nil {
		return nil, fmt.Errorf("invalid vector literal: %w", err)
	}
	return vec, nil
}

var _ Store = (*SQLStore)(nil)
