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

// Package ratelimit tracks GitHub API quota for a whole invocation.
//
// A single Tracker is shared by every request the process makes, REST and
// GraphQL, reads and mutations alike. Before each request the caller
// acquires a unit of quota; if the last response reported zero remaining
// requests the caller is suspended until the reset time. After each
// response the caller records the server-stated quota.
//
// Time is read through a Clock so suspension can be tested without
// sleeping:
//
//	clock := ratelimit.NewFakeClock(time.Unix(0, 0))
//	tracker := ratelimit.NewTracker(clock, true)
//	tracker.Observe(ratelimit.Info{Remaining: 0, Reset: clock.Now().Add(time.Minute)})
//	_ = tracker.Acquire(ctx) // returns after the fake clock advanced one minute
package ratelimit
