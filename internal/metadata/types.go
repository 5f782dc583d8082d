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

// Package metadata types define the run summary printed at the end of a
// command. The summary is never persisted.
package metadata

import (
	"time"
)

// RunSummary is the complete record of one command invocation.
type RunSummary struct {
	ToolVersion string            `json:"tool_version"`
	RunID       string            `json:"run_id"`
	Command     string            `json:"command"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Results     RunResults        `json:"results"`
	RateLimit   *QuotaSnapshot    `json:"rate_limit,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// RunResults contains the counters collected during a run.
type RunResults struct {
	Rows         int            `json:"rows_written"`
	Outcomes     map[string]int `json:"outcomes,omitempty"`
	Anomalies    int            `json:"anomalies,omitempty"`
	APICallCount int            `json:"api_calls_made"`
	RateWaits    int            `json:"rate_limit_waits"`
	Duration     string         `json:"duration"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
}

// QuotaSnapshot is the last quota the API reported.
type QuotaSnapshot struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}
