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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Javier-Cancino/econonexo/pkg/auth"
	"github.com/Javier-Cancino/econonexo/pkg/server"
)

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Address string `short:"a" help:"Listen address (overrides server.address)." placeholder:"HOST:PORT"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			slog.Warn("Shutdown incomplete", "error", err)
		}
	}()

	validator, err := auth.NewValidatorFromConfig(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to configure auth: %w", err)
	}

	opts := []server.Option{
		server.WithObservability(a.obs),
		server.WithMetricsPath(cfg.Observability.Metrics.Path),
		server.WithVersion(a.version),
	}
	if validator != nil {
		opts = append(opts, server.WithAuth(validator))
	}
	if a.keys != nil {
		opts = append(opts, server.WithKeyManager(a.keys))
	}
	srv := server.New(cfg.Server, a.agent, a.engine, opts...)

	g, gctx := errgroup.WithContext(ctx)
	if a.index != nil {
		// Searches that arrive first build their shard on demand.
		g.Go(func() error {
			start := time.Now()
			if err := a.index.Warm(gctx); err != nil {
				slog.Warn("Catalog index warm-up failed", "error", err)
				return nil
			}
			slog.Info("Catalog index ready", "elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		})
	}
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	printStartup(cfg.Server.Address, a, validator != nil)

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Stopped")
	return nil
}

func printStartup(address string, a *app, authEnabled bool) {
	cfg := a.cfg
	fmt.Printf("\nEconoNexo %s listening on %s\n", a.version, address)
	fmt.Printf("   Chat:        POST /api/chat\n")
	fmt.Printf("   Search:      GET  /api/search-indicators\n")
	if a.keys != nil {
		fmt.Printf("   API keys:    /api/keys (%s)\n", cfg.Database.Driver)
	}
	fmt.Printf("   Health:      GET  /health\n")
	if cfg.Observability.Metrics.Enabled {
		fmt.Printf("   Metrics:     GET  %s\n", cfg.Observability.Metrics.Path)
	}
	if cfg.Observability.Tracing.Enabled {
		fmt.Printf("   Tracing:     %s (%s)\n", cfg.Observability.Tracing.Exporter, cfg.Observability.Tracing.Endpoint)
	}
	fmt.Printf("   Catalog:     %s, search %s\n", cfg.Catalog.Backend, cfg.Catalog.Search)
	if authEnabled {
		fmt.Printf("   Auth:        bearer (HS256)\n")
	}
	fmt.Println("\nPress Ctrl+C to stop")
}
