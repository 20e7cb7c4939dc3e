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
	"embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed seed/*.json
var seedFS embed.FS

// FileStore is an in-memory Store loaded from JSON arrays. Each element is
// {"id", "text", "embedding"?}; the exported catalog shapes
// {"id", "descripcion"} and {"id", "titulo"} are accepted too.
type FileStore struct {
	entries map[Source][]Entry
	byID    map[Source]map[string]Entry
}

// NewFileStore loads one JSON file per source. Sources without a path use
// the embedded seed catalog.
func NewFileStore(paths map[Source]string) (*FileStore, error) {
	s := &FileStore{
		entries: make(map[Source][]Entry, len(Sources)),
		byID:    make(map[Source]map[string]Entry, len(Sources)),
	}

	for _, src := range Sources {
		var (
			data []byte
			err  error
		)
		if path := paths[src]; path != "" {
			data, err = os.ReadFile(path)
		} else {
			data, err = seedFS.ReadFile("seed/" + string(src) + ".json")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s catalog: %w", src, err)
		}

		entries, err := decodeEntries(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s catalog: %w", src, err)
		}
		s.set(src, entries)
	}
	return s, nil
}

// NewMemoryStore builds a FileStore from entries already in memory.
func NewMemoryStore(entries map[Source][]Entry) *FileStore {
	s := &FileStore{
		entries: make(map[Source][]Entry, len(entries)),
		byID:    make(map[Source]map[string]Entry, len(entries)),
	}
	for src, list := range entries {
		s.set(src, list)
	}
	return s
}

func (s *FileStore) set(src Source, entries []Entry) {
	byID := make(map[string]Entry, len(entries))
	kept := entries[:0:0]
	for _, e := range entries {
		if _, dup := byID[e.ID]; dup || e.ID == "" {
			continue
		}
		byID[e.ID] = e
		kept = append(kept, e)
	}
	s.entries[src] = kept
	s.byID[src] = byID
}

func (s *FileStore) LookupLabel(_ context.Context, src Source, id string) (string, bool, error) {
	e, ok := s.byID[src][id]
	if !ok {
		return "", false, nil
	}
	name := ShortName(src, e.Text)
	return name, name != "", nil
}

func (s *FileStore) AllEntries(_ context.Context, src Source) ([]Entry, error) {
	return append([]Entry(nil), s.entries[src]...), nil
}

type fileEntry struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Descripcion string    `json:"descripcion"`
	Titulo      string    `json:"titulo"`
	Embedding   []float32 `json:"embedding"`
}

func decodeEntries(data []byte) ([]Entry, error) {
	var raw []fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		text := r.Text
		if text == "" {
			text = r.Descripcion
		}
		if text == "" {
			text = r.Titulo
		}
		entries = append(entries, Entry{ID: r.ID, Text: text, Embedding: r.Embedding})
	}
	return entries, nil
}

var _ Store = (*FileStore)(nil)
