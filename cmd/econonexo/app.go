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
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Javier-Cancino/econonexo/pkg/agent"
	"github.com/Javier-Cancino/econonexo/pkg/catalog"
	"github.com/Javier-Cancino/econonexo/pkg/config"
	"github.com/Javier-Cancino/econonexo/pkg/credential"
	"github.com/Javier-Cancino/econonexo/pkg/embedder"
	"github.com/Javier-Cancino/econonexo/pkg/model"
	"github.com/Javier-Cancino/econonexo/pkg/model/gemini"
	"github.com/Javier-Cancino/econonexo/pkg/model/openai"
	"github.com/Javier-Cancino/econonexo/pkg/observability"
	"github.com/Javier-Cancino/econonexo/pkg/search"
	"github.com/Javier-Cancino/econonexo/pkg/source"
	"github.com/Javier-Cancino/econonexo/pkg/tool"
)

// loadConfig reads the --config file, or the zero-config defaults, and
// re-initializes the logger with the file's logger section.
func (cli *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cli.initLogger(&cfg.Logger); err != nil {
		return nil, err
	}
	if cli.Config != "" {
		slog.Debug("Loaded configuration", "path", cli.Config)
	}
	return cfg, nil
}

// app holds every component built from one configuration.
type app struct {
	cfg     *config.Config
	pool    *config.DBPool
	obs     *observability.Manager
	store   catalog.Store
	index   *catalog.Index
	engine  *search.Engine
	creds   credential.Store
	keys    credential.Manager
	tools   *tool.Registry
	agent   *agent.Agent
	version string
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{
		cfg:     cfg,
		pool:    config.NewDBPool(),
		version: version(),
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.obs, err = observability.NewManager(ctx, cfg.Observability, a.version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	metrics := a.obs.Metrics()

	ranker, err := a.buildCatalog(ctx)
	if err != nil {
		return nil, err
	}

	searchOpts := []search.Option{search.WithObserver(metrics)}
	emb, err := embedder.New(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if emb != nil {
		searchOpts = append(searchOpts, search.WithEmbedder(embedder.NewDeduplicated(emb)))
		slog.Debug("Semantic search enabled", "provider", cfg.Embedder.Provider, "model", emb.Model())
	}
	a.engine = search.NewEngine(ranker, searchOpts...)

	if err := a.buildCredentials(ctx); err != nil {
		return nil, err
	}

	a.tools = tool.NewRegistry(a.engine, source.NewSet(cfg.Sources), a.creds, a.store,
		tool.WithObserver(metrics))

	a.agent = agent.New(a.tools, a.creds, providerSlots(cfg.Providers),
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithToolProtocolRetries(cfg.Agent.ToolProtocolRetries),
		agent.WithObserver(metrics))
	return a, nil
}

// buildCatalog opens the catalog store and returns the ranker over it.
func (a *app) buildCatalog(ctx context.Context) (catalog.Ranker, error) {
	cfg := a.cfg
	tables := catalogTables(cfg.Catalog)

	switch cfg.Catalog.Backend {
	case config.CatalogBackendSQL:
		db, err := a.pool.Get(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog database: %w", err)
		}
		store, err := catalog.NewSQLStore(db, cfg.Database.Dialect(), tables)
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog store: %w", err)
		}
		a.store = store
	default:
		store, err := catalog.NewFileStore(map[catalog.Source]string{
			catalog.SourceINEGI:   cfg.Catalog.InegiFile,
			catalog.SourceBanxico: cfg.Catalog.BanxicoFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		a.store = store
	}

	if cfg.Catalog.Search == config.SearchBackendPostgres {
		db, err := a.pool.Get(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open search database: %w", err)
		}
		slog.Debug("Catalog search runs in Postgres")
		return catalog.NewPostgresRanker(db, tables), nil
	}

	a.index = catalog.NewIndex(a.store)
	return a.index, nil
}

func catalogTables(cfg config.CatalogConfig) map[catalog.Source]catalog.Table {
	tables := catalog.DefaultTables()
	for src, name := range map[catalog.Source]string{
		catalog.SourceINEGI:   cfg.InegiTable,
		catalog.SourceBanxico: cfg.BanxicoTable,
	} {
		if name == "" {
			continue
		}
		t := tables[src]
		t.Name = name
		tables[src] = t
	}
	return tables
}

// buildCredentials wires the static store, backed by the SQL store when
// configured. Only the SQL store is writable.
func (a *app) buildCredentials(ctx context.Context) error {
	static := credential.Static(a.cfg.Credentials.Static)
	if a.cfg.Credentials.Backend != config.CredentialBackendSQL {
		a.creds = static
		return nil
	}

	db, err := a.pool.Get(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open credentials database: %w", err)
	}
	store, err := credential.NewSQLStore(ctx, db, a.cfg.Database.Dialect(), a.cfg.Credentials.Table)
	if err != nil {
		return fmt.Errorf("failed to create credential store: %w", err)
	}
	a.creds = credential.Chain{store, static}
	a.keys = store
	return nil
}

// providerSlots keeps the configured order, which is the fallback priority.
func providerSlots(providers []config.ProviderConfig) []agent.ProviderSlot {
	slots := make([]agent.ProviderSlot, 0, len(providers))
	for _, p := range providers {
		slots = append(slots, agent.ProviderSlot{
			Name:      p.Name,
			ServerKey: p.APIKey,
			New:       providerFactory(p),
		})
	}
	return slots
}

func providerFactory(p config.ProviderConfig) model.Factory {
	if p.Name == config.ProviderGoogle {
		return func(apiKey string) (model.Provider, error) {
			client, err := gemini.New(gemini.Config{
				APIKey:      apiKey,
				Model:       p.Model,
				Temperature: p.Temperature,
				Timeout:     p.Timeout,
				BaseURL:     p.BaseURL,
			})
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}

	// Groq speaks the OpenAI Chat Completions protocol.
	return func(apiKey string) (model.Provider, error) {
		client, err := openai.New(openai.Config{
			Name:        p.Name,
			APIKey:      apiKey,
			Model:       p.Model,
			BaseURL:     p.BaseURL,
			Temperature: p.Temperature,
			Timeout:     p.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Close releases the database pool and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.obs != nil {
		if err := a.obs.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.pool.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
