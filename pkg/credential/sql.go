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

package credential

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStore keeps one secret per (user, provider) in a SQL table. Secrets are
// stored base64-encoded.
type SQLStore struct {
	db      *sql.DB
	dialect string
	table   string
}

// NewSQLStore creates the table if needed. dialect is "postgres", "mysql"
// or "sqlite".
func NewSQLStore(ctx context.Context, db *sql.DB, dialect, table string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	switch dialect {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}
	if table == "" {
		table = "api_keys"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}

	s := &SQLStore{db: db, dialect: dialect, table: table}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id VARCHAR(64) PRIMARY KEY,
    user_id VARCHAR(255) NOT NULL,
    provider VARCHAR(32) NOT NULL,
    api_key TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (user_id, provider)
)`, s.table)

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Get(ctx context.Context, userID, name string) (string, bool, error) {
	query := s.rebind(fmt.Sprintf("SELECT api_key FROM %s WHERE user_id = ? AND provider = ?", s.table))

	var encoded string
	err := s.db.QueryRowContext(ctx, query, userID, name).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s key: %w", name, err)
	}

	secret, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false, fmt.Errorf("failed to decode %s key: %w", name, err)
	}
	return string(secret), len(secret) > 0, nil
}

// Put stores or replaces the user's secret for name and returns the row id.
func (s *SQLStore) Put(ctx context.Context, userID, name, secret string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	del := s.rebind(fmt.Sprintf("DELETE FROM %s WHERE user_id = ? AND provider = ?", s.table))
	if _, err := tx.ExecContext(ctx, del, userID, name); err != nil {
		return "", fmt.Errorf("failed to replace %s key: %w", name, err)
	}

	id := uuid.NewString()
	ins := s.rebind(fmt.Sprintf("INSERT INTO %s (id, user_id, provider, api_key, created_at) VALUES (?, ?, ?, ?, ?)", s.table))
	if _, err := tx.ExecContext(ctx, ins, id, userID, name,
		base64.StdEncoding.EncodeToString([]byte(secret)), time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to store %s key: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit %s key: %w", name, err)
	}
	return id, nil
}

func (s *SQLStore) Delete(ctx context.Context, userID, name string) error {
	query := s.rebind(fmt.Sprintf("DELETE FROM %s WHERE user_id = ? AND provider = ?", s.table))
	if _, err := s.db.ExecContext(ctx, query, userID, name); err != nil {
		return fmt.Errorf("failed to delete %s key: %w", name, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, userID string) ([]Info, error) {
	query := s.rebind(fmt.Sprintf("SELECT id, provider, created_at FROM %s WHERE user_id = ? ORDER BY provider", s.table))

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		var (
			info      Info
			createdAt time.Time
		)
		if err := rows.Scan(&info.ID, &info.Provider, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		info.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

var _ Manager = (*SQLStore)(nil)
