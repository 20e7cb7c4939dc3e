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

package embedder

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Deduplicated collapses concurrent Embed calls for the same text into one
// upstream request.
type Deduplicated struct {
	next  Embedder
	group singleflight.Group
}

func NewDeduplicated(next Embedder) *Deduplicated {
	return &Deduplicated{next: next}
}

func (d *Deduplicated) Model() string {
	return d.next.Model()
}

func (d *Deduplicated) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err, _ := d.group.Do(text, func() (any, error) {
		return d.next.Embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	// Callers share the slice; hand each one its own copy.
	return append([]float32(nil), v.([]float32)...), nil
}

var _ Embedder = (*Deduplicated)(nil)
