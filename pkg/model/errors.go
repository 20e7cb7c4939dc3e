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

package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorClass drives the fallback policy.
type ErrorClass int

const (
	// ClassOther is terminal for the request.
	ClassOther ErrorClass = iota

	// ClassQuota moves on to the next provider.
	ClassQuota

	// ClassToolProtocol retries the same provider a bounded number of times.
	ClassToolProtocol
)

func (c ErrorClass) String() string {
	switch c {
	case ClassQuota:
		return "quota"
	case ClassToolProtocol:
		return "tool_protocol"
	default:
		return "other"
	}
}

var quotaKeywords = []string{"quota", "rate limit", "exceeded", "limit: 0", "429", "resource_exhausted"}

var toolProtocolKeywords = []string{"tool_use_failed", "malformed_function_call"}

// Error is a classified provider failure. Message is the provider's own
// description and is safe to show to the user.
type Error struct {
	Provider   string
	Class      ErrorClass
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d, %s)", e.Provider, e.Message, e.StatusCode, e.Class)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Class)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError classifies a failure from its status code and message. A
// timeout is always ClassOther: its text says "deadline exceeded", which
// must not read as a quota error.
func NewError(provider string, statusCode int, message string, err error) *Error {
	if statusCode == 0 && IsTimeout(err) {
		return &Error{Provider: provider, Class: ClassOther, Message: "request timed out", Err: err}
	}
	if message == "" && err != nil {
		message = err.Error()
	}
	return &Error{
		Provider:   provider,
		Class:      ClassifyMessage(statusCode, message),
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// NewToolProtocolError reports a tool call the backend could not express.
func NewToolProtocolError(provider, message string, err error) *Error {
	return &Error{Provider: provider, Class: ClassToolProtocol, Message: message, Err: err}
}

// ClassifyMessage applies the status and keyword rules. A 429 is always a
// quota error; tool protocol markers win over quota keywords.
func ClassifyMessage(statusCode int, message string) ErrorClass {
	if statusCode == http.StatusTooManyRequests {
		return ClassQuota
	}
	lower := strings.ToLower(message)
	for _, k := range toolProtocolKeywords {
		if strings.Contains(lower, k) {
			return ClassToolProtocol
		}
	}
	for _, k := range quotaKeywords {
		if strings.Contains(lower, k) {
			return ClassQuota
		}
	}
	return ClassOther
}

// Classify returns the class of err. Errors that are not *Error are
// ClassOther.
func Classify(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassOther
}

// ErrorMessage returns the user-facing description of err.
func ErrorMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
