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

package auth

import (
	"fmt"

	"github.com/Javier-Cancino/econonexo/pkg/config"
)

// NewValidatorFromConfig returns nil when authentication is disabled.
func NewValidatorFromConfig(cfg config.AuthConfig) (*Validator, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	v, err := NewValidator(cfg.Secret, cfg.Issuer, cfg.Audience)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return v, nil
}
