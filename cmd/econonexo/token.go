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
	"time"

	"github.com/Javier-Cancino/econonexo/pkg/auth"
)

// TokenCmd signs a bearer token with auth.secret, for trying out
// authenticated mode locally.
type TokenCmd struct {
	Subject string        `arg:"" help:"User id to put in the sub claim."`
	TTL     time.Duration `help:"Token lifetime." default:"24h"`
}

func (c *TokenCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is not configured")
	}

	validator, err := auth.NewValidator(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		return err
	}
	token, err := validator.Issue(c.Subject, c.TTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
