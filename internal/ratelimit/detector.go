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
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is the wait applied to a throttled response that
// carries neither Retry-After nor a usable reset time.
const DefaultRetryAfter = time.Minute

// Header names GitHub uses to report quota.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Info is the quota state reported by a single response.
type Info struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Detector reads quota headers and recognises throttled responses.
type Detector struct {
	clock Clock
}

// NewDetector creates a Detector that resolves Retry-After against clock.
func NewDetector(clock Clock) *Detector {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Detector{clock: clock}
}

// Parse extracts quota headers. ok is false when the response carried no
// remaining count, which is the case for some error responses and for
// servers that do not enforce quotas.
func (d *Detector) Parse(h http.Header) (info Info, ok bool) {
	remaining := strings.TrimSpace(h.Get(HeaderRemaining))
	if remaining == "" {
		return Info{}, false
	}
	n, err := strconv.Atoi(remaining)
	if err != nil {
		return Info{}, false
	}
	info.Remaining = n
	info.Limit, _ = strconv.Atoi(strings.TrimSpace(h.Get(HeaderLimit)))
	if reset, err := strconv.ParseInt(strings.TrimSpace(h.Get(HeaderReset)), 10, 64); err == nil && reset > 0 {
		info.Reset = time.Unix(reset, 0)
	}
	return info, true
}

// IsRateLimited reports whether resp is a primary or secondary quota refusal.
// GitHub signals both with 403 or 429; a 403 only counts when the quota
// headers say so, since plain 403 also means insufficient permissions.
func (d *Detector) IsRateLimited(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		if resp.Header.Get(HeaderRetryAfter) != "" {
			return true
		}
		return strings.TrimSpace(resp.Header.Get(HeaderRemaining)) == "0"
	}
	return false
}

// graphqlRateLimited is the error type GitHub's GraphQL API uses for quota
// refusals.
const graphqlRateLimited = "RATE_LIMITED"

// IsGraphQLRateLimited reports whether resp is a GraphQL response refused
// for quota. Those arrive as 200 with an error list, so the body is read
// and put back for the caller.
func (d *Detector) IsGraphQLRateLimited(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusOK || resp.Body == nil || resp.Body == http.NoBody {
		return false
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), &errReader{err: err}))
		return false
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Errors []struct {
			Type string `json:"type"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return false
	}
	for _, e := range payload.Errors {
		if e.Type == graphqlRateLimited {
			return true
		}
	}
	return false
}

// errReader replays a read error after the buffered part of a body.
type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) {
	return 0, r.err
}

// Detect returns the quota state of a throttled response. The reset time
// is always in the future so callers can wait on it directly.
func (d *Detector) Detect(resp *http.Response) Info {
	now := d.clock.Now()
	info, _ := d.Parse(resp.Header)
	info.Remaining = 0

	if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get(HeaderRetryAfter))); err == nil && secs >= 0 {
		info.Reset = now.Add(time.Duration(secs) * time.Second)
		return info
	}
	if !info.Reset.After(now) {
		info.Reset = now.Add(DefaultRetryAfter)
	}
	return info
}
