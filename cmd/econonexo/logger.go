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
	"fmt"
	"io"
	"os"

	"github.com/Javier-Cancino/econonexo/pkg/config"
	"github.com/Javier-Cancino/econonexo/pkg/logger"
)

const (
	LogFileEnvVar   = "LOG_FILE"
	LogLevelEnvVar  = "LOG_LEVEL"
	LogFormatEnvVar = "LOG_FORMAT"

	DefaultLogLevel  = "info"
	DefaultLogFormat = logger.FormatSimple
)

// logSettings is the resolved logger configuration.
type logSettings struct {
	Level  string
	File   string
	Format string
}

// resolveLogSettings applies the precedence CLI flag > env var > config
// file > default to each setting. cfg may be nil.
func resolveLogSettings(cliLevel, cliFile, cliFormat string, cfg *config.LoggerConfig) logSettings {
	var fromCfg config.LoggerConfig
	if cfg != nil {
		fromCfg = *cfg
	}
	return logSettings{
		Level:  firstNonEmpty(cliLevel, os.Getenv(LogLevelEnvVar), fromCfg.Level, DefaultLogLevel),
		File:   firstNonEmpty(cliFile, os.Getenv(LogFileEnvVar), fromCfg.File),
		Format: firstNonEmpty(cliFormat, os.Getenv(LogFormatEnvVar), fromCfg.Format, DefaultLogFormat),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// initLogger installs the default logger, replacing one installed earlier.
func (cli *CLI) initLogger(cfg *config.LoggerConfig) error {
	settings := resolveLogSettings(cli.LogLevel, cli.LogFile, cli.LogFormat, cfg)

	level, err := logger.ParseLevel(settings.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if !logger.ValidFormat(settings.Format) {
		return fmt.Errorf("invalid log format %q (valid: simple, verbose, json)", settings.Format)
	}

	var (
		output  io.Writer = os.Stderr
		cleanup           = func() {}
	)
	if settings.File != "" {
		file, closeFile, err := logger.OpenLogFile(settings.File)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = closeFile
	}

	logger.Init(level, output, settings.Format)

	cli.closeLogger()
	cli.closeLog = cleanup
	return nil
}

func (cli *CLI) closeLogger() {
	if cli.closeLog != nil {
		cli.closeLog()
		cli.closeLog = nil
	}
}
