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
	"fmt"
	"strconv"
	"strings"
)

// PostgresRanker ranks inside Postgres: 'spanish' text search with an
// accent-folded substring fallback for the lexical side and pgvector cosine distance for the
// semantic side. It needs the pgvector extension for SemanticRank.
type PostgresRanker struct {
	db     *sql.DB
	tables map[Source]Table
}

func NewPostgresRanker(db *sql.DB, tables map[Source]Table) *PostgresRanker {
	if tables == nil {
		tables = DefaultTables()
	}
	return &PostgresRanker{db: db, tables: tables}
}

func (r *PostgresRanker) LexicalRank(ctx context.Context, src Source, query string, limit int) ([]Entry, error) {
	t, ok := r.tables[src]
	if !ok {
		return nil, fmt.Errorf("no catalog table configured for %s", src)
	}
	return r.query(ctx, lexicalStatement(t), query, "%"+Normalize(query)+"%", limit)
}

// translate() pairs that mirror Normalize for the Spanish alphabet, so the
// substring fallback works without the unaccent extension.
const (
	accentedRunes = "áàäâéèëêíìïîóòöôúùüûñç"
	foldedRunes   = "aaaaeeeeiiiioooouuuunc"
)

// lexicalStatement matches full text first. Rows matched only by the
// accent-folded substring have rank 0 and sort after full-text hits.
func lexicalStatement(t Table) string {
	return fmt.Sprintf(`SELECT id, %[1]s
FROM %[2]s
WHERE to_tsvector('spanish', %[1]s) @@ plainto_tsquery('spanish', $1)
   OR translate(lower(%[1]s), '%[3]s', '%[4]s') LIKE $2
ORDER BY ts_rank(to_tsvector('spanish', %[1]s), plainto_tsquery('spanish', $1)) DESC, id
LIMIT $3`, t.TextColumn, t.Name, accentedRunes, foldedRunes)
}

func (r *PostgresRanker) SemanticRank(ctx context.Context, src Source, vector []float32, limit int) ([]Entry, error) {
	t, ok := r.tables[src]
	if !ok {
		return nil, fmt.Errorf("no catalog table configured for %s", src)
	}

	stmt := fmt.Sprintf(`SELECT id, %[1]s
FROM %[2]s
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1::vector
LIMIT $2`, t.TextColumn, t.Name)

	return r.query(ctx, stmt, VectorLiteral(vector), limit)
}

func (r *PostgresRanker) query(ctx context.Context, stmt string, args ...any) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog query failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			text sql.NullString
		)
		if err := rows.Scan(&e.ID, &text); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		e.Text = text.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// VectorLiteral renders vector in pgvector text form, "[x,y,...]".
func VectorLiteral(vector []float32) string {
	var b strings.Builder
	b.Grow(len(vector) * 10)
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

var _ Ranker = (*PostgresRanker)(nil)
