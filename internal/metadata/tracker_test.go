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

package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/sirseer-roster/internal/ratelimit"
)

var testStart = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestTracker_Generate(t *testing.T) {
	clock := ratelimit.NewFakeClock(testStart)
	tr := New("block-users", clock)

	tr.SetParam("input", "targets.csv")
	tr.AddRows(3)
	tr.RecordOutcome("blocked")
	tr.RecordOutcome("blocked")
	tr.RecordOutcome("failed")
	tr.AddAnomalies(1)
	clock.Advance(90 * time.Second)

	quota := ratelimit.NewTracker(clock, true)
	quota.Observe(ratelimit.Info{Limit: 5000, Remaining: 4000, Reset: testStart.Add(time.Hour)})
	for i := 0; i < 4; i++ {
		if err := quota.Acquire(t.Context()); err != nil {
			t.Fatal(err)
		}
	}

	s := tr.Generate("1.2.3", quota, nil)

	if _, err := uuid.Parse(s.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", s.RunID, err)
	}
	if s.RunID != tr.RunID() {
		t.Error("summary run id differs from tracker")
	}
	if s.ToolVersion != "1.2.3" || s.Command != "block-users" {
		t.Errorf("header = %q %q", s.ToolVersion, s.Command)
	}
	if s.Parameters["input"] != "targets.csv" {
		t.Errorf("parameters = %v", s.Parameters)
	}
	r := s.Results
	if r.Rows != 3 || r.Outcomes["blocked"] != 2 || r.Outcomes["failed"] != 1 || r.Anomalies != 1 {
		t.Errorf("results = %+v", r)
	}
	if r.APICallCount != 4 {
		t.Errorf("APICallCount = %d, want 4", r.APICallCount)
	}
	if r.Duration != "1m30s" {
		t.Errorf("Duration = %q, want 1m30s", r.Duration)
	}
	if !r.StartedAt.Equal(testStart) {
		t.Errorf("StartedAt = %v", r.StartedAt)
	}
	if s.RateLimit == nil || s.RateLimit.Remaining != 3996 || s.RateLimit.Limit != 5000 {
		t.Errorf("RateLimit = %+v", s.RateLimit)
	}
	if s.Error != "" {
		t.Errorf("Error = %q", s.Error)
	}
}

func TestTracker_GenerateWithoutSession(t *testing.T) {
	tr := New("list-followers", nil)
	s := tr.Generate("dev", nil, errors.New("authentication required"))

	if s.RateLimit != nil || s.Results.APICallCount != 0 {
		t.Errorf("summary without session reported quota: %+v", s)
	}
	if s.Error != "authentication required" {
		t.Errorf("Error = %q", s.Error)
	}
	if s.Parameters != nil || s.Results.Outcomes != nil {
		t.Error("empty maps should be omitted")
	}
}

func TestTracker_UnknownQuotaOmitted(t *testing.T) {
	tr := New("check-follow", ratelimit.NewFakeClock(testStart))
	s := tr.Generate("dev", ratelimit.NewTracker(ratelimit.NewFakeClock(testStart), true), nil)
	if s.RateLimit != nil {
		t.Errorf("RateLimit = %+v, want nil before any response", s.RateLimit)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := New("list-pr-contributors", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.AddRows(2)
			tr.RecordOutcome("blocked")
		}()
	}
	wg.Wait()

	s := tr.Generate("dev", nil, nil)
	if s.Results.Rows != 100 || s.Results.Outcomes["blocked"] != 50 {
		t.Errorf("results = %+v", s.Results)
	}
}

func TestWriteSummary(t *testing.T) {
	tr := New("list-blocks", ratelimit.NewFakeClock(testStart))
	tr.AddRows(7)

	var buf bytes.Buffer
	if err := WriteSummary(tr.Generate("dev", nil, nil), &buf); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, buf.String())
	}
	for _, key := range []string{"tool_version", "run_id", "command", "results"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("summary missing %q", key)
		}
	}
	results := decoded["results"].(map[string]any)
	if results["rows_written"] != float64(7) {
		t.Errorf("rows_written = %v", results["rows_written"])
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"")) {
		t.Error("summary is not indented")
	}
}
