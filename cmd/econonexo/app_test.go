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


package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javier-Cancino/econonexo/pkg/agent"
	"github.com/Javier-Cancino/econonexo/pkg/catalog"
	"github.com/Javier-Cancino/econonexo/pkg/config"
	"github.com/Javier-Cancino/econonexo/pkg/search"
)

// clearEnv keeps zero-config defaults from picking up the developer's keys.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DATABASE_URL", "VOYAGE_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY",
		"GOOGLE_API_KEY", "INEGI_TOKEN", "BANXICO_TOKEN",
		LogLevelEnvVar, LogFileEnvVar, LogFormatEnvVar,
	} {
		t.Setenv(name, "")
	}
}

func TestResolveLogSettings(t *testing.T) {
	tests := []struct {
		name     string
		cliLevel string
		envLevel string
		cfg      *config.LoggerConfig
		want     logSettings
	}{
		{
			name: "defaults",
			want: logSettings{Level: "info", Format: "simple"},
		},
		{
			name: "config",
			cfg:  &config.LoggerConfig{Level: "warn", Format: "json", File: "app.log"},
			want: logSettings{Level: "warn", Format: "json", File: "app.log"},
		},
		{
			name:     "env beats config",
			envLevel: "error",
			cfg:      &config.LoggerConfig{Level: "warn"},
			want:     logSettings{Level: "error", Format: "simple"},
		},
		{
			name:     "flag beats env",
			cliLevel: "debug",
			envLevel: "error",
			cfg:      &config.LoggerConfig{Level: "warn"},
			want:     logSettings{Level: "debug", Format: "simple"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(LogLevelEnvVar, tt.envLevel)
			assert.Equal(t, tt.want, resolveLogSettings(tt.cliLevel, "", "", tt.cfg))
		})
	}
}

func TestInitLogger_RejectsInvalid(t *testing.T) {
	clearEnv(t)

	cli := &CLI{LogLevel: "loud"}
	assert.Error(t, cli.initLogger(nil))

	cli = &CLI{LogFormat: "xml"}
	assert.Error(t, cli.initLogger(nil))

	cli = &CLI{LogFile: filepath.Join(t.TempDir(), "econonexo.log")}
	require.NoError(t, cli.initLogger(nil))
	assert.NotNil(t, cli.closeLog)
	cli.closeLogger()
	assert.Nil(t, cli.closeLog)
}

func TestCatalogTables(t *testing.T) {
	tables := catalogTables(config.CatalogConfig{InegiTable: "indicadores", BanxicoTable: ""})

	assert.Equal(t, "indicadores", tables[catalog.SourceINEGI].Name)
	assert.Equal(t, catalog.DefaultTables()[catalog.SourceINEGI].TextColumn, tables[catalog.SourceINEGI].TextColumn)
	assert.Equal(t, catalog.DefaultTables()[catalog.SourceBanxico], tables[catalog.SourceBanxico])
}

func TestProviderSlots(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Providers[0].APIKey = "server-groq"

	slots := providerSlots(cfg.Providers)
	require.Len(t, slots, 3)

	var names []string
	for _, s := range slots {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"groq", "openai", "google"}, names)
	assert.Equal(t, "server-groq", slots[0].ServerKey)
	assert.Empty(t, slots[1].ServerKey)

	groq, err := slots[0].New("gsk-test")
	require.NoError(t, err)
	assert.Equal(t, "groq", groq.Name())

	google, err := slots[2].New("AIza-test")
	require.NoError(t, err)
	assert.NotNil(t, google)

	_, err = slots[1].New("")
	assert.Error(t, err)
}

func TestNewApp_ZeroConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Default()
	require.NoError(t, err)

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.Close(ctx)

	assert.Nil(t, a.keys, "static credentials are read-only")
	require.NotNil(t, a.index)
	require.NoError(t, a.index.Warm(ctx))

	results, err := a.engine.Search(ctx, "producto interno bruto", catalog.SourceINEGI)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	resp := a.agent.Run(ctx, agent.Request{UserID: "local", Message: "hola"})
	require.NotNil(t, resp)
	assert.Contains(t, resp.Message, "API Key")
	assert.Nil(t, resp.Data)
}

func TestNewApp_SQLCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("INEGI_TOKEN", "env-token")

	path := filepath.Join(t.TempDir(), "econonexo.db")
	cfg, err := config.Parse([]byte(`
database:
  driver: sqlite
  database: ` + path + `
catalog:
  backend: file
`))
	require.NoError(t, err)
	require.Equal(t, config.CredentialBackendSQL, cfg.Credentials.Backend)

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NotNil(t, a.keys)

	// Static keys back up users with nothing stored.
	secret, ok, err := a.creds.Get(ctx, "alice", "inegi")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "env-token", secret)

	_, err = a.keys.Put(ctx, "alice", "inegi", "user-token")
	require.NoError(t, err)

	secret, ok, err = a.creds.Get(ctx, "alice", "inegi")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-token", secret)
}

func TestNewApp_BadDatabase(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Parse([]byte(`
database:
  driver: sqlite
  database: ` + filepath.Join(t.TempDir(), "missing", "dir", "x.db") + `
`))
	require.NoError(t, err)

	_, err = newApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestPrintResponse(t *testing.T) {
	resp := &agent.Response{
		Message: "Aquí están los datos.",
		Data: &agent.Data{
			Table:  [][]string{{"Fecha", "Valor"}, {"2024/01", "4.88"}},
			CSV:    `"Fecha","Valor"` + "\n" + `"2024/01","4.88"`,
			Source: "INEGI - Inflación",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printResponse(&buf, resp, false))
	assert.Equal(t, "Aquí están los datos.\n\n# INEGI - Inflación\n\"Fecha\",\"Valor\"\n\"2024/01\",\"4.88\"\n", buf.String())

	buf.Reset()
	require.NoError(t, printResponse(&buf, &agent.Response{Message: "hola"}, true))
	assert.JSONEq(t, `{"message":"hola"}`, buf.String())
}

func TestPrintCandidates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printCandidates(&buf, nil, true))
	assert.JSONEq(t, `{"results":[]}`, buf.String())

	buf.Reset()
	require.NoError(t, printCandidates(&buf, nil, false))
	assert.Equal(t, "No matches.\n", buf.String())

	buf.Reset()
	require.NoError(t, printCandidates(&buf, []search.Candidate{{ID: "SF43718", Description: "Tipo de cambio FIX"}}, false))
	assert.Contains(t, buf.String(), "SF43718")
	assert.Contains(t, buf.String(), "Tipo de cambio FIX")
}
