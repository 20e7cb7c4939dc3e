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

// Package credential resolves per-user secrets: data provider tokens and
// LLM API keys.
package credential

import (
	"context"
	"log/slog"
	"sort"
)

// Well-known credential names.
const (
	INEGI   = "inegi"
	Banxico = "banxico"
	OpenAI  = "openai"
	Google  = "google"
	Groq    = "groq"
)

// Names lists every credential name a user may store.
func Names() []string {
	return []string{OpenAI, Google, Groq, INEGI, Banxico}
}

// Valid reports whether name is a known credential name.
func Valid(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Store looks up a secret by user and name. A missing secret is reported as
// ("", false, nil), never as an error.
type Store interface {
	Get(ctx context.Context, userID, name string) (string, bool, error)
}

// Info describes a stored secret without revealing it.
type Info struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	CreatedAt string `json:"createdAt"`
}

// Manager is a Store that users can write to.
type Manager interface {
	Store
	Put(ctx context.Context, userID, name, secret string) (string, error)
	Delete(ctx context.Context, userID, name string) error
	List(ctx context.Context, userID string) ([]Info, error)
}

// Static serves the same secrets to every user.
type Static map[string]string

func (s Static) Get(_ context.Context, _, name string) (string, bool, error) {
	v, ok := s[name]
	return v, ok && v != "", nil
}

// Chain asks each store in order and returns the first secret found. A store
// failure is logged and the next store is tried.
type Chain []Store

func (c Chain) Get(ctx context.Context, userID, name string) (string, bool, error) {
	var firstErr error
	for _, store := range c {
		secret, ok, err := store.Get(ctx, userID, name)
		if err != nil {
			slog.Warn("Credential lookup failed", "name", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return secret, true, nil
		}
	}
	return "", false, firstErr
}

// Configured returns the names the user has a secret for, sorted.
func Configured(ctx context.Context, store Store, userID string) []string {
	var names []string
	for _, name := range Names() {
		if _, ok, err := store.Get(ctx, userID, name); err == nil && ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

var (
	_ Store = Static(nil)
	_ Store = Chain(nil)
)
