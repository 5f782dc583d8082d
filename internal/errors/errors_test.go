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

package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     bool
	}{
		{
			name:     "direct invalid token error",
			err:      ErrInvalidToken,
			sentinel: ErrInvalidToken,
			want:     true,
		},
		{
			name:     "wrapped invalid token error",
			err:      fmt.Errorf("failed to authenticate: %w", ErrInvalidToken),
			sentinel: ErrInvalidToken,
			want:     true,
		},
		{
			name:     "different error type",
			err:      ErrNotFound,
			sentinel: ErrInvalidToken,
			want:     false,
		},
		{
			name:     "wrapped network error",
			err:      fmt.Errorf("connection failed: %w", ErrNetworkFailure),
			sentinel: ErrNetworkFailure,
			want:     true,
		},
		{
			name:     "partial error unwraps to cause",
			err:      &PartialError{Op: "block run", Processed: 3, Err: ErrRateLimit},
			sentinel: ErrRateLimit,
			want:     true,
		},
		{
			name:     "nil error",
			err:      nil,
			sentinel: ErrInvalidToken,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.sentinel)
			if got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.sentinel, got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrAuthRequired, "authentication required"},
		{ErrInvalidToken, "invalid github token"},
		{ErrNotFound, "resource not found"},
		{ErrNetworkFailure, "network connection failed"},
		{ErrRateLimit, "github rate limit exceeded"},
		{ErrTargetFailed, "target failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPartialError(t *testing.T) {
	err := fmt.Errorf("run failed: %w", &PartialError{
		Op:        "block run",
		Processed: 4,
		Succeeded: 2,
		Err:       ErrInvalidToken,
	})

	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatal("errors.As did not find PartialError")
	}
	if partial.Processed != 4 || partial.Succeeded != 2 {
		t.Errorf("counts = %d/%d, want 4/2", partial.Processed, partial.Succeeded)
	}
	msg := err.Error()
	for _, want := range []string{"block run", "4 processed", "2 succeeded", "invalid github token"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"auth required", ErrAuthRequired, true},
		{"invalid token", fmt.Errorf("x: %w", ErrInvalidToken), true},
		{"rate limit", fmt.Errorf("x: %w", ErrRateLimit), true},
		{"network", ErrNetworkFailure, true},
		{"cancelled", context.Canceled, true},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), true},
		{"not found", fmt.Errorf("user: %w", ErrNotFound), false},
		{"target failure", ErrTargetFailed, false},
		{"unclassified", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
