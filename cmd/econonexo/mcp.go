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

	"github.com/Javier-Cancino/econonexo/pkg/mcpserver"
)

// MCPCmd serves the four data tools over MCP stdio. Logs go to stderr or
// the log file so stdout stays a clean JSON-RPC stream.
type MCPCmd struct {
	User string `short:"u" help:"User id whose stored tokens are used (default: server.default_user)."`
}

func (c *MCPCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	user := c.User
	if user == "" {
		user = cfg.Server.DefaultUser
	}

	srv, err := mcpserver.New(a.tools, user, a.version)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	slog.Debug("MCP tools run as user", "user", user)
	if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
