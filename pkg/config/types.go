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

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Javier-Cancino/econonexo/pkg/logger"
)

type ServerConfig struct {
	Address      string        `yaml:"address" json:"address" jsonschema:"default=:8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	// DefaultUser is the identity used when auth is disabled and the
	// request carries no X-User-ID header.
	DefaultUser string `yaml:"default_user" json:"default_user" jsonschema:"default=local"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	// Long enough for five LLM round trips plus a data fetch.
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.DefaultUser == "" {
		c.DefaultUser = "local"
	}
}

type LoggerConfig struct {
	Level  string `yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Format string `yaml:"format" json:"format" jsonschema:"enum=simple,enum=verbose,enum=json,default=simple"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = logger.FormatSimple
	}
}

func (c *LoggerConfig) Validate() error {
	if _, err := logger.ParseLevel(c.Level); err != nil {
		return err
	}
	if !logger.ValidFormat(c.Format) {
		return fmt.Errorf("invalid format %q (valid: simple, verbose, json)", c.Format)
	}
	return nil
}

const (
	CatalogBackendFile = "file"
	CatalogBackendSQL  = "sql"

	SearchBackendMemory   = "memory"
	SearchBackendPostgres = "postgres"
)

// CatalogConfig selects where catalog rows come from and how they are ranked.
type CatalogConfig struct {
	// Backend is "file" (JSON files or the embedded seed) or "sql".
	Backend string `yaml:"backend" json:"backend" validate:"oneof=file sql" jsonschema:"enum=file,enum=sql"`
	// Search is "memory" (in-process full-text + vector index) or
	// "postgres" (ts_rank + pgvector in the database).
	Search string `yaml:"search" json:"search" validate:"oneof=memory postgres" jsonschema:"enum=memory,enum=postgres"`

	// JSON catalog files; empty means the embedded seed catalog.
	InegiFile   string `yaml:"inegi_file,omitempty" json:"inegi_file,omitempty"`
	BanxicoFile string `yaml:"banxico_file,omitempty" json:"banxico_file,omitempty"`

	InegiTable   string `yaml:"inegi_table,omitempty" json:"inegi_table,omitempty" jsonschema:"default=inegi_indicadores"`
	BanxicoTable string `yaml:"banxico_table,omitempty" json:"banxico_table,omitempty" jsonschema:"default=banxico_series"`
}

func (c *CatalogConfig) SetDefaults(hasDatabase bool) {
	if c.Backend == "" {
		c.Backend = CatalogBackendFile
		if hasDatabase {
			c.Backend = CatalogBackendSQL
		}
	}
	if c.Search == "" {
		c.Search = SearchBackendMemory
	}
	if c.InegiTable == "" {
		c.InegiTable = "inegi_indicadores"
	}
	if c.BanxicoTable == "" {
		c.BanxicoTable = "banxico_series"
	}
}

// EmbedderConfig configures the query embedding service. An empty provider
// disables semantic ranking and search runs lexical-only.
type EmbedderConfig struct {
	Provider string        `yaml:"provider" json:"provider" validate:"omitempty,oneof=voyage openai ollama" jsonschema:"enum=voyage,enum=openai,enum=ollama"`
	Model    string        `yaml:"model,omitempty" json:"model,omitempty"`
	BaseURL  string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	APIKey   string        `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

func (c *EmbedderConfig) SetDefaults() {
	if c.Provider == "" && os.Getenv("VOYAGE_API_KEY") != "" {
		c.Provider = "voyage"
	}
	switch c.Provider {
	case "voyage":
		if c.BaseURL == "" {
			c.BaseURL = "https://api.voyageai.com/v1"
		}
		if c.Model == "" {
			c.Model = "voyage-3-lite"
		}
		if c.APIKey == "" {
			c.APIKey = os.Getenv("VOYAGE_API_KEY")
		}
	case "openai":
		if c.BaseURL == "" {
			c.BaseURL = "https://api.openai.com/v1"
		}
		if c.Model == "" {
			c.Model = "text-embedding-3-small"
		}
		if c.APIKey == "" {
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "ollama":
		if c.BaseURL == "" {
			c.BaseURL = "http://localhost:11434"
		}
		if c.Model == "" {
			c.Model = "nomic-embed-text"
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// ProviderConfig is one LLM backend. The order of Config.Providers is the
// fallback priority.
type ProviderConfig struct {
	Name    string `yaml:"name" json:"name" validate:"required,oneof=groq openai google" jsonschema:"required,enum=groq,enum=openai,enum=google"`
	Model   string `yaml:"model,omitempty" json:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	// APIKey is a server-side key used when the user has none stored.
	APIKey      string        `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Temperature *float64      `yaml:"temperature,omitempty" json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// DefaultProviders is the original priority order: groq, openai, google.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: ProviderGroq, APIKey: os.Getenv("GROQ_API_KEY")},
		{Name: ProviderOpenAI, APIKey: os.Getenv("OPENAI_API_KEY")},
		{Name: ProviderGoogle, APIKey: os.Getenv("GOOGLE_API_KEY")},
	}
}

func (c *ProviderConfig) SetDefaults() {
	switch c.Name {
	case ProviderGroq:
		if c.BaseURL == "" {
			c.BaseURL = "https://api.groq.com/openai/v1"
		}
		if c.Model == "" {
			c.Model = "llama-3.3-70b-versatile"
		}
	case ProviderOpenAI:
		if c.BaseURL == "" {
			c.BaseURL = "https://api.openai.com/v1"
		}
		if c.Model == "" {
			c.Model = "gpt-4o-mini"
		}
	case ProviderGoogle:
		if c.Model == "" {
			c.Model = "gemini-2.0-flash"
		}
	}
	if c.Temperature == nil {
		t := 0.1
		c.Temperature = &t
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
}

type AgentConfig struct {
	MaxIterations       int `yaml:"max_iterations" json:"max_iterations" validate:"gte=1,lte=20" jsonschema:"default=5"`
	ToolProtocolRetries int `yaml:"tool_protocol_retries" json:"tool_protocol_retries" validate:"gte=0,lte=5" jsonschema:"default=2"`
}

func (c *AgentConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 5
	}
	if c.ToolProtocolRetries == 0 {
		c.ToolProtocolRetries = 2
	}
}

type SourceEndpoint struct {
	BaseURL string        `yaml:"base_url,omitempty" json:"base_url,omitempty" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

func (e *SourceEndpoint) setDefaults(baseURL string) {
	if e.BaseURL == "" {
		e.BaseURL = baseURL
	}
	if e.Timeout == 0 {
		e.Timeout = 30 * time.Second
	}
}

type SourcesConfig struct {
	INEGI   SourceEndpoint `yaml:"inegi" json:"inegi"`
	Banxico SourceEndpoint `yaml:"banxico" json:"banxico"`
	SHCP    SourceEndpoint `yaml:"shcp" json:"shcp"`
	// SHCPRowLimit caps the data rows kept from an SHCP dataset.
	SHCPRowLimit int `yaml:"shcp_row_limit,omitempty" json:"shcp_row_limit,omitempty" validate:"gte=0" jsonschema:"default=100"`
}

func (c *SourcesConfig) SetDefaults() {
	c.INEGI.setDefaults("https://www.inegi.org.mx/app/api/indicadores/desarrolladores/jsonxml")
	c.Banxico.setDefaults("https://www.banxico.org.mx/SieAPIRest/service/v1")
	c.SHCP.setDefaults("https://repodatos.atdt.gob.mx/s_hacienda_cred_publico/indicadores_fiscales")
	if c.SHCPRowLimit == 0 {
		c.SHCPRowLimit = 100
	}
}

const (
	CredentialBackendStatic = "static"
	CredentialBackendSQL    = "sql"
)

// CredentialsConfig selects where per-user secrets come from. Static keys
// apply to every user and back up the SQL store when both are present.
type CredentialsConfig struct {
	Backend string            `yaml:"backend" json:"backend" validate:"oneof=static sql" jsonschema:"enum=static,enum=sql"`
	Table   string            `yaml:"table,omitempty" json:"table,omitempty" jsonschema:"default=api_keys"`
	Static  map[string]string `yaml:"static,omitempty" json:"static,omitempty"`
}

func (c *CredentialsConfig) SetDefaults(hasDatabase bool) {
	if c.Backend == "" {
		c.Backend = CredentialBackendStatic
		if hasDatabase {
			c.Backend = CredentialBackendSQL
		}
	}
	if c.Table == "" {
		c.Table = "api_keys"
	}
	if c.Static == nil {
		c.Static = make(map[string]string)
	}
	for name, env := range map[string]string{"inegi": "INEGI_TOKEN", "banxico": "BANXICO_TOKEN"} {
		if c.Static[name] == "" {
			if v := os.Getenv(env); v != "" {
				c.Static[name] = v
			}
		}
	}
}

type AuthConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Secret   string `yaml:"secret,omitempty" json:"secret,omitempty"`
	Issuer   string `yaml:"issuer,omitempty" json:"issuer,omitempty"`
	Audience string `yaml:"audience,omitempty" json:"audience,omitempty"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name" jsonschema:"default=econonexo"`
	Metrics     MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty" jsonschema:"default=/metrics"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter,omitempty" json:"exporter,omitempty" validate:"omitempty,oneof=otlp stdout" jsonschema:"enum=otlp,enum=stdout"`
	Endpoint     string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"sampling_rate,omitempty" json:"sampling_rate,omitempty" validate:"gte=0,lte=1"`
}

func (c *ObservabilityConfig) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "econonexo"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "otlp"
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4317"
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1.0
	}
}
