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

// INEGI reads indicators from the BIE/BISE developer API. The token travels
// in the URL path.
type INEGI struct {
	client  *httpclient.Client
	baseURL string
}

type inegiResponse struct {
	Series []struct {
		Unit         string `json:"UNIT"`
		LastUpdate   string `json:"LASTUPDATE"`
		Observations []struct {
			TimePeriod string `json:"TIME_PERIOD"`
			Value      string `json:"OBS_VALUE"`
		} `json:"OBSERVATIONS"`
	} `json:"Series"`
}

var inegiHeader = []string{"Periodo", "Valor", "Unidad", "UltimaActualizacion"}

func NewINEGI(client *httpclient.Client, baseURL string) *INEGI {
	return &INEGI{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *INEGI) endpoint(id, token string) string {
	return fmt.Sprintf("%s/INDICATOR/%s/es/00/false/BIE-BISE/2.0/%s?type=json",
		a.baseURL, url.PathEscape(id), url.PathEscape(token))
}

// Fetch ignores dates; the API always returns the full history.
func (a *INEGI) Fetch(ctx context.Context, id, credential string, _ *DateRange) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint(id, credential), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	slog.Debug("Fetching INEGI indicator", "indicator", id)

	resp, err := a.client.Do(req)
	if err != nil {
		if se, ok := httpclient.AsStatus(err); ok && strings.Contains(string(se.Body), "ErrorCode:100") {
			return nil, fmt.Errorf("inegi indicator %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("inegi indicator %s: request failed: %w", id, err)
	}
	defer resp.Body.Close()

	var payload inegiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode inegi response: %w", err)
	}
	if len(payload.Series) == 0 || len(payload.Series[0].Observations) == 0 {
		return nil, fmt.Errorf("inegi indicator %s: %w", id, ErrEmpty)
	}

	series := payload.Series[0]
	table := &Table{Header: inegiHeader, Rows: make([][]string, 0, len(series.Observations))}
	for _, obs := range series.Observations {
		table.Rows = append(table.Rows, []string{obs.TimePeriod, obs.Value, series.Unit, series.LastUpdate})
	}
	return table, nil
}

var _ Adapter = (*INEGI)(nil)
