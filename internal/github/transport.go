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

package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/giterror"
	"github.com/sirseerhq/sirseer-roster/internal/logging"
	"github.com/sirseerhq/sirseer-roster/internal/ratelimit"
	"github.com/sirseerhq/sirseer-roster/pkg/version"
)

// maxResponseBytes caps a single response body.
const maxResponseBytes = 10 * 1024 * 1024

// newTransport builds the chain retry -> rateLimit -> auth -> base, so
// every attempt, retries included, acquires and observes quota.
func newTransport(opts Options, tracker *ratelimit.Tracker, inspector giterror.Inspector) http.RoundTripper {
	base := opts.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}
	}

	auth := &authTransport{
		token: opts.Token,
		base:  base,
	}
	limited := &rateLimitTransport{
		base:     auth,
		tracker:  tracker,
		detector: ratelimit.NewDetector(tracker.Clock()),
		autoWait: opts.AutoWait,
	}
	return &retryTransport{
		base:       limited,
		maxRetries: opts.NetworkRetries,
		inspector:  inspector,
	}
}

// rateLimitTransport consults the shared tracker before every request and
// feeds it the quota headers of every response. A throttled response is
// retried once after the reset time. GraphQL reports throttling as a 200
// with a RATE_LIMITED error, so POST responses are checked for that too.
type rateLimitTransport struct {
	base     http.RoundTripper
	tracker  *ratelimit.Tracker
	detector *ratelimit.Detector
	autoWait bool
}

// RoundTrip implements http.RoundTripper with rate limit handling.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	detached := context.WithoutCancel(ctx)

	for attempt := 0; ; attempt++ {
		if err := t.tracker.Acquire(ctx); err != nil {
			return nil, err
		}

		attemptReq, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}
		resp, err := t.base.RoundTrip(attemptReq.WithContext(detached))
		if err != nil {
			return nil, err
		}

		if info, ok := t.detector.Parse(resp.Header); ok {
			t.tracker.Observe(info)
		}
		throttled := t.detector.IsRateLimited(resp) ||
			(req.Method == http.MethodPost && t.detector.IsGraphQLRateLimited(resp))
		if !throttled {
			return resp, nil
		}

		info := t.detector.Detect(resp)
		drain(resp)
		t.tracker.Observe(info)

		switch {
		case attempt > 0:
			return nil, fmt.Errorf("throttled again after waiting for reset: %w", rostererrors.ErrRateLimit)
		case !t.autoWait:
			return nil, fmt.Errorf("rate limit exceeded, reset at %s: %w",
				info.Reset.Format(time.Kitchen), rostererrors.ErrRateLimit)
		case req.Body != nil && req.Body != http.NoBody && req.GetBody == nil:
			return nil, fmt.Errorf("throttled request cannot be replayed: %w", rostererrors.ErrRateLimit)
		}

		logging.FromContext(ctx).Warn().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Time("reset", info.Reset).
			Msg("request throttled, retrying after reset")
	}
}

// retryTransport re-issues requests that failed with a transient network
// error or gateway status. Retries are immediate unless the rate limit
// layer below has to wait for quota.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	inspector  giterror.Inspector
}

// RoundTrip implements http.RoundTripper with retry logic.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			if err := req.Context().Err(); err != nil {
				return nil, err
			}
		}

		attemptReq, err := rewind(req, attempt)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", lastErr, rostererrors.ErrNetworkFailure)
		}

		resp, err := t.base.RoundTrip(attemptReq)
		if err == nil && !isRetryableStatusCode(resp.StatusCode) {
			return resp, nil
		}

		if err != nil {
			if !t.isTransient(err) {
				return nil, err
			}
			lastErr = err
		} else {
			lastErr = fmt.Errorf("received status %d", resp.StatusCode)
			drain(resp)
		}

		logging.FromContext(req.Context()).Debug().
			Err(lastErr).
			Int("attempt", attempt+1).
			Int("max_attempts", t.maxRetries+1).
			Msg("transient failure")
	}

	return nil, fmt.Errorf("failed after %d attempts: %v: %w", t.maxRetries+1, lastErr, rostererrors.ErrNetworkFailure)
}

func (t *retryTransport) isTransient(err error) bool {
	if errors.Is(err, rostererrors.ErrRateLimit) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return t.inspector.IsNetworkError(err)
}

// isRetryableStatusCode checks if an HTTP status code should trigger a retry.
func isRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// rewind returns req for the first attempt and a copy with a fresh body
// for later ones.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// authTransport adds the bearer token, user agent and response size limit.
// Anonymous sessions send no Authorization header.
type authTransport struct {
	token string
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      maxResponseBytes,
		}
	}

	return resp, nil
}
