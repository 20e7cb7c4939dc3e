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


// Command econonexo answers questions about Mexican economic indicators.
//
// Usage:
//
//	econonexo serve --config econonexo.yaml
//	econonexo ask "¿Cuál fue la inflación en 2023?"
//	econonexo search "tipo de cambio" --source banxico
//	econonexo mcp --user alice
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/Javier-Cancino/econonexo"
	"github.com/Javier-Cancino/econonexo/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP server."`
	Ask      AskCmd      `cmd:"" help:"Ask the agent one question."`
	Search   SearchCmd   `cmd:"" help:"Search the indicator catalog."`
	MCP      MCPCmd      `cmd:"" name:"mcp" help:"Serve the data tools over MCP stdio."`
	Token    TokenCmd    `cmd:"" help:"Mint a bearer token for a user."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, json)."`

	closeLog func()
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(econonexo.GetVersion())
	return nil
}

func version() string {
	return econonexo.GetVersion().Version
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("econonexo"),
		kong.Description("EconoNexo - conversational access to INEGI, Banxico and SHCP data"),
		kong.UsageOnError(),
	)

	if err := config.LoadDotEnv(cli.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Flags and env first; commands that load a config re-apply it.
	if err := cli.initLogger(nil); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err := ctx.Run(&cli)
	cli.closeLogger()
	ctx.FatalIfErrorf(err)
}
