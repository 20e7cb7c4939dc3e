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

// Package config loads and validates the econonexo YAML configuration.
//
// Values may reference environment variables (${VAR}, ${VAR:-default},
// $VAR). A missing config file is not an error: defaults plus well-known
// environment variables give a working zero-config setup.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Logger        LoggerConfig        `yaml:"logger" json:"logger"`
	Database      *DatabaseConfig     `yaml:"database,omitempty" json:"database,omitempty"`
	Catalog       CatalogConfig       `yaml:"catalog" json:"catalog"`
	Embedder      EmbedderConfig      `yaml:"embedder" json:"embedder"`
	Providers     []ProviderConfig    `yaml:"providers" json:"providers" validate:"dive"`
	Agent         AgentConfig         `yaml:"agent" json:"agent"`
	Sources       SourcesConfig       `yaml:"sources" json:"sources"`
	Credentials   CredentialsConfig   `yaml:"credentials" json:"credentials"`
	Auth          AuthConfig          `yaml:"auth" json:"auth"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// Load reads path, expands environment references and applies defaults.
// An empty path or a missing file yields the zero-config defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default()
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	expanded, err := yaml.Marshal(expandEnvVarsInData(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode expanded config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the zero-config configuration.
func Default() (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Logger.SetDefaults()

	if c.Database == nil {
		if url := os.Getenv("DATABASE_URL"); url != "" {
			c.Database = &DatabaseConfig{Driver: "postgres", URL: url}
		}
	}
	if c.Database != nil {
		c.Database.SetDefaults()
	}

	c.Catalog.SetDefaults(c.Database != nil)
	c.Embedder.SetDefaults()

	if len(c.Providers) == 0 {
		c.Providers = DefaultProviders()
	}
	for i := range c.Providers {
		c.Providers[i].SetDefaults()
	}

	c.Agent.SetDefaults()
	c.Sources.SetDefaults()
	c.Credentials.SetDefaults(c.Database != nil)
	c.Observability.SetDefaults()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if c.Database != nil {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.Catalog.Backend == CatalogBackendSQL && c.Database == nil {
		return fmt.Errorf("catalog: backend %q requires a database section", c.Catalog.Backend)
	}
	if c.Catalog.Search == SearchBackendPostgres && (c.Database == nil || c.Database.Driver != "postgres") {
		return fmt.Errorf("catalog: search backend %q requires a postgres database", c.Catalog.Search)
	}
	if c.Credentials.Backend == CredentialBackendSQL && c.Database == nil {
		return fmt.Errorf("credentials: backend %q requires a database section", c.Credentials.Backend)
	}

	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if seen[p.Name] {
			return fmt.Errorf("providers: %q listed twice", p.Name)
		}
		seen[p.Name] = true
	}

	if c.Auth.Enabled && len(c.Auth.Secret) < 32 {
		return fmt.Errorf("auth: secret must be at least 32 bytes when auth is enabled")
	}
	return nil
}
