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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Javier-Cancino/econonexo/pkg/config"
)

// ValidateCmd validates a configuration file.
type ValidateCmd struct {
	Path string `arg:"" optional:"" name:"path" help:"Configuration file path (default: --config)." placeholder:"PATH"`

	Format      string `short:"f" help:"Output format: compact, verbose, json." default:"compact" enum:"compact,verbose,json"`
	PrintConfig bool   `short:"p" name:"print-config" help:"Print the expanded configuration (with defaults applied and env vars resolved)."`
	Schema      bool   `help:"Print the JSON Schema of the configuration and exit."`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	if c.Schema {
		data, err := config.Schema(c.Format != "compact")
		if err != nil {
			return fmt.Errorf("failed to generate schema: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	path := c.Path
	if path == "" {
		path = cli.Config
	}
	if path == "" {
		return fmt.Errorf("a config path is required (argument or --config)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return printLoadError(os.Stderr, c.Format, path, err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return printLoadError(os.Stderr, c.Format, path, err)
	}

	if c.PrintConfig {
		return printExpandedConfig(os.Stdout, c.Format, path, cfg)
	}
	printSuccess(os.Stdout, c.Format, path)
	return nil
}

// ValidationError is one entry of the json output.
type ValidationError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type jsonOutput struct {
	Valid  bool              `json:"valid"`
	File   string            `json:"file"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func printLoadError(w io.Writer, format, file string, err error) error {
	switch format {
	case "json":
		printJSONResult(os.Stdout, false, file, []ValidationError{{Type: "load", Message: err.Error()}})
	case "verbose":
		fmt.Fprintf(w, "Configuration Load Error\n")
		fmt.Fprintf(w, "========================\n\n")
		fmt.Fprintf(w, "File:    %s\n", file)
		fmt.Fprintf(w, "Error:   %s\n", err.Error())
	default:
		fmt.Fprintf(w, "%s: load error: %s\n", file, err.Error())
	}
	return fmt.Errorf("config load failed")
}

func printSuccess(w io.Writer, format, file string) {
	switch format {
	case "json":
		printJSONResult(w, true, file, nil)
	case "verbose":
		fmt.Fprintf(w, "Configuration Validation Successful\n")
		fmt.Fprintf(w, "===================================\n\n")
		fmt.Fprintf(w, "File:   %s\n", file)
		fmt.Fprintf(w, "Status: OK Valid\n")
	default:
		fmt.Fprintf(w, "%s: valid\n", file)
	}
}

// printExpandedConfig prints cfg with defaults applied. Secrets are printed
// as resolved, so the output should not be shared.
func printExpandedConfig(w io.Writer, format, file string, cfg *config.Config) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config as JSON: %w", err)
		}
		return nil
	}

	fmt.Fprintf(w, "# Expanded configuration from: %s\n", file)
	fmt.Fprintf(w, "# (defaults applied, env vars resolved)\n\n")

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config as YAML: %w", err)
	}
	return encoder.Close()
}

func printJSONResult(w io.Writer, valid bool, file string, errs []ValidationError) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(jsonOutput{Valid: valid, File: file, Errors: errs}); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}
