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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Javier-Cancino/econonexo/pkg/httpclient"
)

// Banxico reads series from the SIE REST API. The token travels in the
// Bmx-Token header.
type Banxico struct {
	client  *httpclient.Client
	baseURL string
}

type banxicoResponse struct {
	BMX struct {
		Series []struct {
			ID    string `json:"idSerie"`
			Title string `json:"titulo"`
			Data  []struct {
				Date  string `json:"fecha"`
				Value string `json:"dato"`
			} `json:"datos"`
		} `json:"series"`
	} `json:"bmx"`
}

var banxicoHeader = []string{"Fecha", "Valor", "Serie", "Titulo"}

func NewBanxico(client *httpclient.Client, baseURL string) *Banxico {
	return &Banxico{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *Banxico) endpoint(id string, dates *DateRange) string {
	u := fmt.Sprintf("%s/series/%s/datos", a.baseURL, url.PathEscape(id))
	if dates != nil && dates.Start != "" && dates.End != "" {
		u += "/" + url.PathEscape(dates.Start) + "/" + url.PathEscape(dates.End)
	}
	return u
}

func (a *Banxico) Fetch(ctx context.Context, id, credential string, dates *DateRange) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint(id, dates), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Bmx-Token", credential)
	req.Header.Set("Accept", "application/json")

	slog.Debug("Fetching Banxico series", "series", id, "dates", dates)

	resp, err := a.client.Do(req)
	if err != nil {
		if se, ok := httpclient.AsStatus(err); ok && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("banxico series %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("banxico request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload banxicoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode banxico response: %w", err)
	}
	if len(payload.BMX.Series) == 0 || len(payload.BMX.Series[0].Data) == 0 {
		return nil, fmt.Errorf("banxico series %s: %w", id, ErrEmpty)
	}

	series := payload.BMX.Series[0]
	table := &Table{Header: banxicoHeader, Rows: make([][]string, 0, len(series.Data))}
	for _, d := range series.Data {
		table.Rows = append(table.Rows, []string{d.Date, d.Value, series.ID, series.Title})
	}
	return table, nil
}

var _ Adapter = (*Banxico)(nil)
