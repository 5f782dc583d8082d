// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrAuthRequired indicates an operation needs an authenticated session
	// but the tool is running anonymously.
	// Maps to exit code 2.
	ErrAuthRequired = errors.New("authentication required")

	// ErrInvalidToken indicates GitHub rejected the session's credentials.
	// Maps to exit code 2.
	ErrInvalidToken = errors.New("invalid github token")

	// ErrNotFound indicates the requested repository or user does not exist or is not accessible.
	// Maps to exit code 2.
	ErrNotFound = errors.New("resource not found")

	// ErrNetworkFailure indicates a network connection problem that survived the bounded retries.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrRateLimit indicates the quota stayed exhausted after waiting for the reset.
	// Maps to exit code 2.
	ErrRateLimit = errors.New("github rate limit exceeded")

	// ErrTargetFailed marks a failure scoped to a single item of a batch.
	// It is recorded by the caller and never aborts the batch.
	ErrTargetFailed = errors.New("target failed")
)

// PartialError reports a fatal error that interrupted an operation after
// some items had already been handled. Processed counts items with a
// recorded result, Succeeded the subset that changed state or produced output.
type PartialError struct {
	Op        string
	Processed int
	Succeeded int
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s interrupted after %d processed (%d succeeded): %v", e.Op, e.Processed, e.Succeeded, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err should abort a whole top-level operation
// rather than being recorded against a single target.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrAuthRequired),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrRateLimit),
		errors.Is(err, ErrNetworkFailure),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}
	return false
}
