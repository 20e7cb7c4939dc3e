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

package tool

import (
	"encoding/json"
	"strings"

	"github.com/Javier-Cancino/econonexo/pkg/search"
)

// Result is the outcome of a tool execution: *DataTable, *SearchResults or
// *Error.
type Result interface {
	// Content renders the result for the conversation. DataTable renders a
	// summary only.
	Content() string
	isResult()
}

// DataTable is a fetched series. Rows[0] is the header.
type DataTable struct {
	Rows        [][]string
	SourceLabel string
}

// SearchResults holds catalog candidates, best first.
type SearchResults struct {
	Candidates []search.Candidate
}

// ErrorKind classifies a tool failure.
type ErrorKind string

const (
	ErrorNotFound     ErrorKind = "not_found"
	ErrorNoCredential ErrorKind = "no_credential"
	ErrorFetchFailed  ErrorKind = "fetch_failed"
)

// Error is a domain failure reported by a tool. SubjectID is the id or
// credential name concerned.
type Error struct {
	Kind      ErrorKind
	SubjectID string
}

func (*DataTable) isResult()     {}
func (*SearchResults) isResult() {}
func (*Error) isResult()         {}

// Summary describes a table without its cell values.
type Summary struct {
	Success bool        `json:"success"`
	Data    SummaryData `json:"data"`
}

type SummaryData struct {
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Source  string   `json:"source"`
}

func (t *DataTable) Summary() Summary {
	s := Summary{Success: true, Data: SummaryData{Source: t.SourceLabel, Columns: []string{}}}
	if len(t.Rows) > 0 {
		s.Data.Columns = t.Rows[0]
		s.Data.Rows = len(t.Rows) - 1
	}
	return s
}

func (t *DataTable) Content() string {
	return mustJSON(t.Summary())
}

// CSV renders every cell wrapped in double quotes, cells joined by commas
// and rows by newlines.
func (t *DataTable) CSV() string {
	lines := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = `"` + cell + `"`
		}
		lines[i] = strings.Join(cells, ",")
	}
	return strings.Join(lines, "\n")
}

// ParseCSV inverts DataTable.CSV for cells that contain neither a newline
// nor the sequence `","`.
func ParseCSV(s string) [][]string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	rows := make([][]string, len(lines))
	for i, line := range lines {
		line = strings.TrimPrefix(line, `"`)
		line = strings.TrimSuffix(line, `"`)
		rows[i] = strings.Split(line, `","`)
	}
	return rows
}

type searchPayload struct {
	Results []search.Candidate `json:"results"`
}

func (r *SearchResults) Content() string {
	candidates := r.Candidates
	if candidates == nil {
		candidates = []search.Candidate{}
	}
	return mustJSON(searchPayload{Results: candidates})
}

type errorPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	ID      string `json:"id,omitempty"`
}

func (e *Error) Content() string {
	msg := "No se pudieron obtener los datos. Intenta con otro identificador."
	switch e.Kind {
	case ErrorNotFound:
		msg = "El identificador no existe en la fuente."
	case ErrorNoCredential:
		msg = "Falta el token de acceso a la fuente."
	}
	return mustJSON(errorPayload{Error: msg, ID: e.SubjectID})
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"success":false}`
	}
	return string(data)
}
