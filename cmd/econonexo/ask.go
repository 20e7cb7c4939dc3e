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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Javier-Cancino/econonexo/pkg/agent"
)

// AskCmd runs one agent request and prints the answer.
type AskCmd struct {
	Message string `arg:"" help:"Question to ask, in Spanish or English."`
	User    string `short:"u" help:"User id whose stored keys are used (default: server.default_user)."`
	JSON    bool   `help:"Print the raw response as JSON."`
}

func (c *AskCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
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

	resp := a.agent.Run(ctx, agent.Request{UserID: user, Message: c.Message})
	return printResponse(os.Stdout, resp, c.JSON)
}

func printResponse(w io.Writer, resp *agent.Response, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	}

	fmt.Fprintln(w, resp.Message)
	if resp.Data != nil {
		fmt.Fprintf(w, "\n# %s\n", resp.Data.Source)
		fmt.Fprintln(w, resp.Data.CSV)
	}
	return nil
}
