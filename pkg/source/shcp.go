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

package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Javier-Cancino/econonexo/pkg/httpclient"
)

// DefaultSHCPRowLimit caps the data rows kept from a dataset.
const DefaultSHCPRowLimit = 100

// Dataset describes one public-finance CSV published by SHCP.
type Dataset struct {
	ID   string
	Name string
	File string
}

var shcpDatasets = []Dataset{
	{ID: "deuda_publica", Name: "Deuda Pública", File: "deuda_publica.csv"},
	{ID: "ingreso_gasto", Name: "Ingreso, Gasto y Financiamiento Público", File: "ingreso_gasto_finan.csv"},
	{ID: "transferencias", Name: "Transferencias a Entidades Federativas", File: "transferencias_entidades_fed.csv"},
	{ID: "rfsp", Name: "Requerimientos Financieros del Sector Público", File: "rfsp.csv"},
	{ID: "deuda_amplia", Name: "Saldo Histórico RFSP (Deuda Amplia)", File: "shrfsp_deuda_amplia_actual.csv"},
}

// SHCPDatasets lists the published datasets in a stable order.
func SHCPDatasets() []Dataset {
	return append([]Dataset(nil), shcpDatasets...)
}

// LookupSHCPDataset returns the dataset with the given id.
func LookupSHCPDataset(id string) (Dataset, bool) {
	for _, d := range shcpDatasets {
		if d.ID == id {
			return d, true
		}
	}
	return Dataset{}, false
}

// SHCP downloads open-data CSV files. It needs no credential.
type SHCP struct {
	client   *httpclient.Client
	baseURL  string
	rowLimit int
}

func NewSHCP(client *httpclient.Client, baseURL string, rowLimit int) *SHCP {
	if rowLimit <= 0 {
		rowLimit = DefaultSHCPRowLimit
	}
	return &SHCP{client: client, baseURL: strings.TrimRight(baseURL, "/"), rowLimit: rowLimit}
}

func (a *SHCP) Fetch(ctx context.Context, id, _ string, _ *DateRange) (*Table, error) {
	dataset, ok := LookupSHCPDataset(id)
	if !ok {
		return nil, fmt.Errorf("shcp dataset %s: %w", id, ErrNotFound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/"+dataset.File, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	slog.Debug("Fetching SHCP dataset", "dataset", id)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shcp request failed: %w", err)
	}
	defer resp.Body.Close()

	table, err := readCSV(resp.Body, a.rowLimit)
	if err != nil {
		return nil, fmt.Errorf("shcp dataset %s: %w", id, err)
	}
	return table, nil
}

// readCSV keeps the header plus at most limit rows and stops reading there.
// Short rows are padded and long rows truncated to the header width.
func readCSV(r io.Reader, limit int) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	table := &Table{Header: header}
	for len(table.Rows) < limit {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		row := make([]string, len(header))
		for i := range row {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if len(table.Rows) == 0 {
		return nil, ErrEmpty
	}
	return table, nil
}

var _ Adapter = (*SHCP)(nil)
