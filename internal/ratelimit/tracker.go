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

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/logging"
)

// Tracker is the process-wide quota ledger. It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	clock     Clock
	autoWait  bool
	limit     int
	remaining int // -1 while unknown
	reset     time.Time
	calls     int
	waits     int
}

// NewTracker creates a Tracker. With autoWait false an exhausted quota
// fails fast with ErrRateLimit instead of suspending the caller.
func NewTracker(clock Clock, autoWait bool) *Tracker {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Tracker{
		clock:     clock,
		autoWait:  autoWait,
		remaining: -1,
	}
}

// Clock returns the tracker's time source.
func (t *Tracker) Clock() Clock {
	return t.clock
}

// Acquire reserves quota for one request, suspending until the reset time
// when the last observed remaining count is zero.
func (t *Tracker) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		t.mu.Lock()
		now := t.clock.Now()
		if t.remaining != 0 || !now.Before(t.reset) {
			if t.remaining == 0 {
				t.remaining = -1
			}
			if t.remaining > 0 {
				t.remaining--
			}
			t.calls++
			t.mu.Unlock()
			return nil
		}
		reset := t.reset
		wait := reset.Sub(now)
		t.waits++
		t.mu.Unlock()

		if !t.autoWait {
			return fmt.Errorf("quota exhausted until %s: %w", reset.Format(time.Kitchen), rostererrors.ErrRateLimit)
		}

		logging.FromContext(ctx).Warn().
			Time("reset", reset).
			Dur("wait", wait.Round(time.Second)).
			Msg("rate limit exhausted, waiting for reset")

		if err := t.clock.Sleep(ctx, wait); err != nil {
			return fmt.Errorf("rate limit wait canceled: %w", err)
		}
	}
}

// Observe records the quota reported by a response. A later reset time
// starts a new window; within a window the lower remaining count wins
// because responses can arrive out of order.
func (t *Tracker) Observe(info Info) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if info.Limit > 0 {
		t.limit = info.Limit
	}
	switch {
	case info.Remaining == 0:
		t.remaining = 0
		t.reset = info.Reset
	case t.remaining < 0, info.Reset.After(t.reset):
		t.remaining = info.Remaining
		t.reset = info.Reset
	case info.Remaining < t.remaining:
		t.remaining = info.Remaining
	}
}

// Calls returns how many requests have acquired quota.
func (t *Tracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Waits returns how many times a caller found the quota exhausted.
func (t *Tracker) Waits() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waits
}

// Snapshot returns the last known quota. Remaining is -1 when no response
// has reported it yet.
func (t *Tracker) Snapshot() Info {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Info{Limit: t.limit, Remaining: t.remaining, Reset: t.reset}
}
