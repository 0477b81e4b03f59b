// Copyright 2025 walteh LLC
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

// Package oracle is the boundary to the external text-rewriting service.
// The rest of the system only ever sees the narrow Oracle interface, so
// the pipeline can be tested against a deterministic stub.
package oracle

import (
	"context"
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// 📨 Request carries everything one rewrite attempt needs
type Request struct {
	// Path is the source file path, used only for logging
	Path string
	// Source is the full file content to rewrite
	Source string
	// Model is the model identifier sent to the endpoint
	Model string
}

// 🔮 Oracle rewrites source text. Implementations perform exactly one
// attempt per call; retry policy belongs to the caller.
type Oracle interface {
	// Rewrite returns the rewritten source, or an error classified as
	// transient or fatal (see IsTransient).
	Rewrite(ctx context.Context, req Request) (string, error)
}

// ⚡ TransientError marks a failure where a retry may succeed: network
// errors, timeouts, HTTP 429 and 5xx.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient oracle failure: %v", e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// 🛑 FatalError marks a failure a retry will not help: 4xx other than
// 429, an unparseable response body, or empty rewritten content.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal oracle failure: %v", e.Cause)
}

func (e *FatalError) Unwrap() error { return e.Cause }

// 🏷️ Transient wraps err as retriable
func Transient(err error) error {
	return &TransientError{Cause: err}
}

// 🏷️ Fatal wraps err as non-retriable
func Fatal(err error) error {
	return &FatalError{Cause: err}
}

// IsTransient reports whether err may succeed on retry. Anything not
// explicitly transient is treated as fatal.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
