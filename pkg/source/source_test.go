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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javier-Cancino/econonexo/pkg/config"
	"github.com/Javier-Cancino/econonexo/pkg/httpclient"
)

func testClient() *httpclient.Client {
	return httpclient.New(httpclient.WithMaxRetries(0), httpclient.WithBaseDelay(time.Millisecond))
}

func TestINEGI_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/INDICATOR/6207061433/es/00/false/BIE-BISE/2.0/tok-123", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`{"Series":[{"UNIT":"Porcentaje","LASTUPDATE":"2025-01-09","OBSERVATIONS":[
			{"TIME_PERIOD":"2024/12","OBS_VALUE":"4.21"},
			{"TIME_PERIOD":"2024/11","OBS_VALUE":"4.55"}]}]}`))
	}))
	defer server.Close()

	table, err := NewINEGI(testClient(), server.URL+"/").Fetch(context.Background(), "6207061433", "tok-123", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Periodo", "Valor", "Unidad", "UltimaActualizacion"}, table.Header)
	assert.Equal(t, [][]string{
		{"2024/12", "4.21", "Porcentaje", "2025-01-09"},
		{"2024/11", "4.55", "Porcentaje", "2025-01-09"},
	}, table.Rows)
	assert.Len(t, table.All(), 3)
}

func TestINEGI_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unknown indicator", http.StatusBadRequest, `["ErrorInfo:No se encontraron resultados","ErrorDetails:","ErrorCode:100"]`, ErrNotFound},
		{"no observations", http.StatusOK, `{"Series":[{"OBSERVATIONS":[]}]}`, ErrEmpty},
		{"no series", http.StatusOK, `{"Series":[]}`, ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewINEGI(testClient(), server.URL).Fetch(context.Background(), "999", "tok", nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestINEGI_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`token invalido`))
	}))
	defer server.Close()

	_, err := NewINEGI(testClient(), server.URL).Fetch(context.Background(), "1", "bad", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrEmpty)
}

func TestINEGI_ErrorOmitsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := NewINEGI(testClient(), baseURL).Fetch(context.Background(), "444456", "SECRET-TOKEN-123", nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-TOKEN-123")
	assert.Contains(t, err.Error(), "444456")
}

func TestTable_AllCopiesHeader(t *testing.T) {
	table := &Table{Header: inegiHeader, Rows: [][]string{{"2024/12", "4.21", "Porcentaje", "2025-01-09"}}}

	rows := table.All()
	rows[0][0] = "mutated"

	assert.Equal(t, "Periodo", inegiHeader[0])
	assert.Equal(t, "Periodo", table.All()[0][0])
}

func TestBanxico_Fetch(t *testing.T) {
	tests := []struct {
		name     string
		dates    *DateRange
		wantPath string
	}{
		{"full history", nil, "/series/SF43718/datos"},
		{"date range", &DateRange{Start: "2024-01-01", End: "2024-12-31"}, "/series/SF43718/datos/2024-01-01/2024-12-31"},
		{"half range ignored", &DateRange{Start: "2024-01-01"}, "/series/SF43718/datos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "bmx-tok", r.Header.Get("Bmx-Token"))
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				_, _ = w.Write([]byte(`{"bmx":{"series":[{"idSerie":"SF43718","titulo":"Tipo de cambio FIX","datos":[
					{"fecha":"02/01/2024","dato":"16.9220"}]}]}}`))
			}))
			defer server.Close()

			table, err := NewBanxico(testClient(), server.URL).Fetch(context.Background(), "SF43718", "bmx-tok", tt.dates)
			require.NoError(t, err)
			assert.Equal(t, []string{"Fecha", "Valor", "Serie", "Titulo"}, table.Header)
			assert.Equal(t, [][]string{{"02/01/2024", "16.9220", "SF43718", "Tipo de cambio FIX"}}, table.Rows)
		})
	}
}

func TestBanxico_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unknown series", http.StatusNotFound, `{"error":{"mensaje":"Serie no encontrada"}}`, ErrNotFound},
		{"no data", http.StatusOK, `{"bmx":{"series":[{"idSerie":"SF1","datos":[]}]}}`, ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewBanxico(testClient(), server.URL).Fetch(context.Background(), "SF1", "tok", nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSHCP_Fetch(t *testing.T) {
	var body strings.Builder
	body.WriteString("\ufeffciclo,mes,\"nombre\",monto\n")
	for i := 0; i < 150; i++ {
		body.WriteString("2024,enero,\"Deuda, neta\",1000\n")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/deuda_publica.csv", r.URL.Path)
		_, _ = w.Write([]byte(body.String()))
	}))
	defer server.Close()

	table, err := NewSHCP(testClient(), server.URL, 0).Fetch(context.Background(), "deuda_publica", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ciclo", "mes", "nombre", "monto"}, table.Header)
	assert.Len(t, table.Rows, DefaultSHCPRowLimit)
	assert.Equal(t, []string{"2024", "enero", "Deuda, neta", "1000"}, table.Rows[0])
}

func TestSHCP_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rfsp.csv":
			_, _ = w.Write([]byte("ciclo,monto\n"))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	adapter := NewSHCP(testClient(), server.URL, 10)

	_, err := adapter.Fetch(context.Background(), "pensiones", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = adapter.Fetch(context.Background(), "rfsp", "", nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = adapter.Fetch(context.Background(), "transferencias", "", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmpty)
}

func TestReadCSV_RaggedRows(t *testing.T) {
	table, err := readCSV(strings.NewReader("a,b,c\n1,2\n1,2,3,4\n"), 10)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2", ""}, {"1", "2", "3"}}, table.Rows)
}

func TestSHCPDatasets(t *testing.T) {
	datasets := SHCPDatasets()
	require.Len(t, datasets, 5)

	d, ok := LookupSHCPDataset("deuda_amplia")
	require.True(t, ok)
	assert.Equal(t, "shrfsp_deuda_amplia_actual.csv", d.File)

	datasets[0].ID = "mutated"
	_, ok = LookupSHCPDataset("deuda_publica")
	assert.True(t, ok)
}

func TestNewSet(t *testing.T) {
	var cfg config.SourcesConfig
	cfg.SetDefaults()

	set := NewSet(cfg)
	assert.NotNil(t, set.INEGI)
	assert.NotNil(t, set.Banxico)
	assert.NotNil(t, set.SHCP)
}
