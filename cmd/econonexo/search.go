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
	"text/tabwriter"

	"github.com/Javier-Cancino/econonexo/pkg/catalog"
	"github.com/Javier-Cancino/econonexo/pkg/search"
)

// SearchCmd queries the catalog without involving the agent.
type SearchCmd struct {
	Query  string `arg:"" help:"Free-text description of the indicator."`
	Source string `short:"s" help:"Catalog to search." default:"inegi" enum:"inegi,banxico"`
	JSON   bool   `help:"Print results as JSON."`
}

func (c *SearchCmd) Run(cli *CLI) error {
	ctx := context.Background()

	src, err := catalog.ParseSource(c.Source)
	if err != nil {
		return err
	}

	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	results, err := a.engine.Search(ctx, c.Query, src)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printCandidates(os.Stdout, results, c.JSON)
}

func printCandidates(w io.Writer, results []search.Candidate, asJSON bool) error {
	if asJSON {
		if results == nil {
			results = []search.Candidate{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"results": results})
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDESCRIPTION")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Description)
	}
	return tw.Flush()
}
