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

// Package metadata collects statistics about a single command run: rows
// written, per-status outcome counts, API calls, rate-limit waits and the
// remaining quota. The summary is held in memory and written as JSON on
// request; nothing is saved between runs.
package metadata

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/sirseer-roster/internal/ratelimit"
)

// Tracker collects statistics during a run. Create one per command
// invocation. It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	runID     string
	command   string
	clock     ratelimit.Clock
	startTime time.Time
	params    map[string]string
	rows      int
	outcomes  map[string]int
	anomalies int
}

// New creates a tracker for command and starts its clock. A nil clock
// uses the system clock.
func New(command string, clock ratelimit.Clock) *Tracker {
	if clock == nil {
		clock = ratelimit.SystemClock{}
	}
	return &Tracker{
		runID:     uuid.NewString(),
		command:   command,
		clock:     clock,
		startTime: clock.Now(),
		params:    make(map[string]string),
		outcomes:  make(map[string]int),
	}
}

// RunID returns the unique id of the run.
func (t *Tracker) RunID() string {
	return t.runID
}

// Command returns the command name the tracker was created for.
func (t *Tracker) Command() string {
	return t.command
}

// SetParam records an input parameter of the run.
func (t *Tracker) SetParam(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.params[key] = value
}

// AddRows records n rows written to the output.
func (t *Tracker) AddRows(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows += n
}

// RecordOutcome counts one per-target outcome such as "blocked".
func (t *Tracker) RecordOutcome(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes[status]++
}

// AddAnomalies records data anomalies found while building a report.
func (t *Tracker) AddAnomalies(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.anomalies += n
}

// Generate builds the summary. quota may be nil when the run never
// created an API session; runErr, if not nil, is recorded as a message.
func (t *Tracker) Generate(toolVersion string, quota *ratelimit.Tracker, runErr error) *RunSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	completedAt := t.clock.Now()
	summary := &RunSummary{
		ToolVersion: toolVersion,
		RunID:       t.runID,
		Command:     t.command,
		Parameters:  copyMap(t.params),
		Results: RunResults{
			Rows:        t.rows,
			Outcomes:    copyMap(t.outcomes),
			Anomalies:   t.anomalies,
			Duration:    completedAt.Sub(t.startTime).String(),
			StartedAt:   t.startTime,
			CompletedAt: completedAt,
		},
	}
	if quota != nil {
		summary.Results.APICallCount = quota.Calls()
		summary.Results.RateWaits = quota.Waits()
		if info := quota.Snapshot(); info.Remaining >= 0 {
			summary.RateLimit = &QuotaSnapshot{Limit: info.Limit, Remaining: info.Remaining, Reset: info.Reset}
		}
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	return summary
}

// WriteSummary serializes the summary as indented JSON to w.
func WriteSummary(summary *RunSummary, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

func copyMap[V any](m map[string]V) map[string]V {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
