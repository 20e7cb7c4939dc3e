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

// Package auth verifies HS256 bearer tokens and carries the caller's
// identity through request contexts.
//
// Authentication is optional. When it is enabled, the token subject is the
// user id that scopes stored API keys:
//
//	auth:
//	  enabled: true
//	  secret: ${ECONONEXO_JWT_SECRET}
//	  issuer: econonexo
package auth

import (
	"context"
)

type contextKey string

const claimsContextKey contextKey = "econonexo_auth_claims"

// Claims are the validated claims of a token.
type Claims struct {
	// Subject is the user id (sub claim).
	Subject string `json:"sub"`

	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// HasRole checks if the user has a specific role.
func (c *Claims) HasRole(role string) bool {
	return c != nil && c.Role == role
}

// ClaimsFromContext returns the claims stored by the middleware, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}

// ContextWithClaims returns a new context with the given claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
