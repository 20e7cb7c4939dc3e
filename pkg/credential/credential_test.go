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
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLStore(t *testing.T) (*SQLStore, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLStore(context.Background(), db, "sqlite", "")
	require.NoError(t, err)
	return store, db
}

func TestSQLStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, db := newTestSQLStore(t)

	_, ok, err := store.Get(ctx, "u1", INEGI)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Put(ctx, "u1", INEGI, "first")
	require.NoError(t, err)
	id, err := store.Put(ctx, "u1", INEGI, "second")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	secret, ok, err := store.Get(ctx, "u1", INEGI)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", secret)

	var raw string
	require.NoError(t, db.QueryRow("SELECT api_key FROM api_keys WHERE user_id = 'u1'").Scan(&raw))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("second")), raw)

	_, ok, err = store.Get(ctx, "u2", INEGI)
	require.NoError(t, err)
	assert.False(t, ok, "secrets are per user")

	infos, err := store.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, id, infos[0].ID)
	assert.Equal(t, INEGI, infos[0].Provider)

	require.NoError(t, store.Delete(ctx, "u1", INEGI))
	_, ok, err = store.Get(ctx, "u1", INEGI)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewSQLStore_Validation(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLStore(context.Background(), nil, "sqlite", "")
	assert.Error(t, err)
	_, err = NewSQLStore(context.Background(), db, "oracle", "")
	assert.Error(t, err)
	_, err = NewSQLStore(context.Background(), db, "sqlite", "keys; DROP TABLE users")
	assert.Error(t, err)
}

func TestSQLStore_Rebind(t *testing.T) {
	s := &SQLStore{dialect: "postgres"}
	assert.Equal(t, "a = $1 AND b = $2", s.rebind("a = ? AND b = ?"))

	s.dialect = "mysql"
	assert.Equal(t, "a = ? AND b = ?", s.rebind("a = ? AND b = ?"))
}

type failingStore struct{}

func (failingStore) Get(context.Context, string, string) (string, bool, error) {
	return "", false, errors.New("database is locked")
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	user := Static{Groq: "gsk-user"}
	server := Static{Groq: "gsk-server", OpenAI: "sk-server", Google: ""}

	tests := []struct {
		name    string
		chain   Chain
		lookup  string
		want    string
		wantOK  bool
		wantErr bool
	}{
		{"first store wins", Chain{user, server}, Groq, "gsk-user", true, false},
		{"falls through", Chain{user, server}, OpenAI, "sk-server", true, false},
		{"empty secret is absent", Chain{user, server}, Google, "", false, false},
		{"failure skipped", Chain{failingStore{}, server}, OpenAI, "sk-server", true, false},
		{"failure reported when nothing found", Chain{failingStore{}, server}, INEGI, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := tt.chain.Get(ctx, "u1", tt.lookup)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestConfigured(t *testing.T) {
	got := Configured(context.Background(), Static{Banxico: "b", Groq: "g", OpenAI: ""}, "u1")
	assert.Equal(t, []string{Banxico, Groq}, got)
	assert.True(t, Valid(INEGI))
	assert.False(t, Valid("anthropic"))
}
