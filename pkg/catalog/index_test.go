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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts AllEntries calls.
type countingStore struct {
	*FileStore
	loads atomic.Int32
	fail  bool
}

func (s *countingStore) AllEntries(ctx context.Context, src Source) ([]Entry, error) {
	s.loads.Add(1)
	if s.fail {
		return nil, errors.New("database down")
	}
	return s.FileStore.AllEntries(ctx, src)
}

func testEntries() map[Source][]Entry {
	return map[Source][]Entry{
		SourceBanxico: {
			{ID: "SF43718", Text: "Tipo de cambio pesos por dólar FIX", Embedding: []float32{1, 0, 0}},
			{ID: "SF61745", Text: "Tasa de interés objetivo", Embedding: []float32{0, 1, 0}},
			{ID: "SF60648", Text: "TIIE a 28 días, tasa de interés interbancaria", Embedding: []float32{0, 0.9, 0.1}},
			{ID: "SF43707", Text: "Reservas internacionales brutas"},
		},
		SourceINEGI: {
			{ID: "628194", Text: "Índice Nacional de Precios al Consumidor / Inflación"},
		},
	}
}

func TestIndex_LexicalRank(t *testing.T) {
	idx := NewIndex(NewMemoryStore(testEntries()))
	ctx := context.Background()

	t.Run("full text", func(t *testing.T) {
		got, err := idx.LexicalRank(ctx, SourceBanxico, "tipo de cambio", 50)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "SF43718", got[0].ID)
		assert.Nil(t, got[0].Embedding)
	})

	t.Run("diacritic-insensitive substring", func(t *testing.T) {
		got, err := idx.LexicalRank(ctx, SourceINEGI, "indice nacional", 50)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "628194", got[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := idx.LexicalRank(ctx, SourceBanxico, "tasa", 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := idx.LexicalRank(ctx, SourceBanxico, "petróleo", 50)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestIndex_SemanticRank(t *testing.T) {
	idx := NewIndex(NewMemoryStore(testEntries()))
	ctx := context.Background()

	got, err := idx.SemanticRank(ctx, SourceBanxico, []float32{0, 1, 0.05}, 50)
	require.NoError(t, err)
	require.Len(t, got, 3, "only embedded rows are ranked")
	assert.Equal(t, "SF61745", got[0].ID)
	assert.Equal(t, "SF60648", got[1].ID)
	assert.Equal(t, "SF43718", got[2].ID)

	got, err = idx.SemanticRank(ctx, SourceINEGI, []float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndex_BuildsOncePerSource(t *testing.T) {
	store := &countingStore{FileStore: NewMemoryStore(testEntries())}
	idx := NewIndex(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := idx.LexicalRank(ctx, SourceBanxico, "tasa", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.loads.Load())

	require.NoError(t, idx.Warm(ctx))
	assert.Equal(t, int32(2), store.loads.Load(), "warm only loads the missing source")
}

func TestIndex_FailedBuildIsRetried(t *testing.T) {
	store := &countingStore{FileStore: NewMemoryStore(testEntries()), fail: true}
	idx := NewIndex(store)
	ctx := context.Background()

	_, err := idx.LexicalRank(ctx, SourceBanxico, "tasa", 10)
	require.Error(t, err)

	store.fail = false
	_, err = idx.LexicalRank(ctx, SourceBanxico, "tasa", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.loads.Load())
}
