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
	"net/http"
	"net/url"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v74/github"
	"github.com/shurcooL/graphql"
	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/giterror"
	"github.com/sirseerhq/sirseer-roster/internal/ratelimit"
	"github.com/sirseerhq/sirseer-roster/pkg/version"
)

// Default endpoints for github.com.
const (
	DefaultAPIEndpoint     = "https://api.github.com/"
	DefaultGraphQLEndpoint = "https://api.github.com/graphql"
)

// Options configures a GitHubClient.
type Options struct {
	// Token authenticates the session. Empty means anonymous.
	Token string

	APIEndpoint     string
	GraphQLEndpoint string

	// PageSize is the per_page value for REST listings, capped at 100.
	PageSize int

	// NetworkRetries is the number of immediate re-issues after a
	// transient network failure.
	NetworkRetries int

	// AutoWait suspends callers until the quota resets instead of
	// failing with ErrRateLimit.
	AutoWait bool

	// Tracker is the shared quota ledger. A new one is created when nil.
	Tracker *ratelimit.Tracker

	// Transport is the innermost round tripper. Defaults to a pooled
	// http.Transport.
	Transport http.RoundTripper
}

// GitHubClient implements Client with go-github for REST endpoints and
// shurcooL/graphql for batched account lookups. Both share one HTTP
// client, and therefore one rate-limit tracker.
type GitHubClient struct {
	rest          *gh.Client
	gql           *graphql.Client
	authenticated bool
	pageSize      int
	tracker       *ratelimit.Tracker
	inspector     giterror.Inspector
}

// NewGitHubClient builds a session from opts.
func NewGitHubClient(opts Options) (*GitHubClient, error) {
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = DefaultAPIEndpoint
	}
	if opts.GraphQLEndpoint == "" {
		opts.GraphQLEndpoint = DefaultGraphQLEndpoint
	}
	if !strings.HasSuffix(opts.APIEndpoint, "/") {
		opts.APIEndpoint += "/"
	}
	baseURL, err := url.Parse(opts.APIEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint %q: %w", opts.APIEndpoint, err)
	}
	if _, err := url.Parse(opts.GraphQLEndpoint); err != nil {
		return nil, fmt.Errorf("invalid GraphQL endpoint %q: %w", opts.GraphQLEndpoint, err)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	tracker := opts.Tracker
	if tracker == nil {
		tracker = ratelimit.NewTracker(ratelimit.SystemClock{}, opts.AutoWait)
	}

	inspector := giterror.NewErrorChainInspector(giterror.NewInspector())
	httpClient := &http.Client{
		Transport: newTransport(opts, tracker, inspector),
	}

	rest := gh.NewClient(httpClient)
	rest.BaseURL = baseURL
	rest.UserAgent = version.UserAgent()
	// The shared tracker is the only quota authority; go-github's own
	// pre-check would fail requests instead of waiting.
	rest.DisableRateLimitCheck = true

	return &GitHubClient{
		rest:          rest,
		gql:           graphql.NewClient(opts.GraphQLEndpoint, httpClient),
		authenticated: opts.Token != "",
		pageSize:      pageSize,
		tracker:       tracker,
		inspector:     inspector,
	}, nil
}

// Authenticated reports whether the session carries a token.
func (c *GitHubClient) Authenticated() bool {
	return c.authenticated
}

// Tracker returns the session's quota ledger.
func (c *GitHubClient) Tracker() *ratelimit.Tracker {
	return c.tracker
}

// ListPullRequests fetches one page of pull requests in any state.
func (c *GitHubClient) ListPullRequests(ctx context.Context, owner, repo, cursor string) (*Page[PullRequestRecord], error) {
	page, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListOptions{
		State:       "all",
		ListOptions: gh.ListOptions{Page: page, PerPage: c.pageSize},
	}
	prs, resp, err := c.rest.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, c.mapError(err, fmt.Sprintf("repository '%s/%s'", owner, repo))
	}

	out := &Page[PullRequestRecord]{
		Items:      make([]PullRequestRecord, 0, len(prs)),
		NextCursor: nextCursor(resp, len(prs)),
	}
	for _, pr := range prs {
		record := PullRequestRecord{
			Number:    pr.GetNumber(),
			CreatedAt: pr.GetCreatedAt().Time,
		}
		if u := pr.GetUser(); u != nil {
			record.Author = Identity{Login: u.GetLogin(), ID: u.GetID()}
		}
		out.Items = append(out.Items, record)
	}
	return out, nil
}

// ListRelationships fetches one page of the caller's followers, followed
// accounts, or blocks.
func (c *GitHubClient) ListRelationships(ctx context.Context, kind RelationshipKind, cursor string) (*Page[Identity], error) {
	if !c.authenticated {
		return nil, fmt.Errorf("listing %s: %w", kind, rostererrors.ErrAuthRequired)
	}
	page, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{Page: page, PerPage: c.pageSize}
	var (
		users []*gh.User
		resp  *gh.Response
	)
	switch kind {
	case Following:
		users, resp, err = c.rest.Users.ListFollowing(ctx, "", opts)
	case Followers:
		users, resp, err = c.rest.Users.ListFollowers(ctx, "", opts)
	case Blocked:
		users, resp, err = c.rest.Users.ListBlockedUsers(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported relationship kind %v", kind)
	}
	if err != nil {
		return nil, c.mapError(err, "listing "+kind.String())
	}

	out := &Page[Identity]{
		Items:      make([]Identity, 0, len(users)),
		NextCursor: nextCursor(resp, len(users)),
	}
	for _, u := range users {
		out.Items = append(out.Items, Identity{Login: u.GetLogin(), ID: u.GetID()})
	}
	return out, nil
}

// BlockUser issues PUT /user/blocks/{login}.
func (c *GitHubClient) BlockUser(ctx context.Context, login string) error {
	if !c.authenticated {
		return fmt.Errorf("blocking %s: %w", login, rostererrors.ErrAuthRequired)
	}
	if _, err := c.rest.Users.BlockUser(ctx, login); err != nil {
		return c.mapError(err, "user '"+login+"'")
	}
	return nil
}

// IsFollowing checks a single follow edge.
func (c *GitHubClient) IsFollowing(ctx context.Context, follower, target string) (bool, error) {
	if follower == "" && !c.authenticated {
		return false, fmt.Errorf("checking follow of %s: %w", target, rostererrors.ErrAuthRequired)
	}
	following, _, err := c.rest.Users.IsFollowing(ctx, follower, target)
	if err != nil {
		return false, c.mapError(err, "follow check")
	}
	return following, nil
}

// mapError converts API errors into the application's sentinel errors.
// Errors already classified by the transport chain keep their sentinel.
func (c *GitHubClient) mapError(err error, subject string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, rostererrors.ErrRateLimit),
		errors.Is(err, rostererrors.ErrNetworkFailure),
		errors.Is(err, rostererrors.ErrAuthRequired):
		return fmt.Errorf("%s: %w", subject, err)
	// Check rate limit first, as 403 can be both auth and rate limit.
	case c.inspector.IsRateLimitError(err):
		return fmt.Errorf("%s: GitHub API rate limit exceeded: %w", subject, rostererrors.ErrRateLimit)
	case c.inspector.IsAuthError(err):
		return fmt.Errorf("GitHub API authentication failed. Please provide a valid token via --token flag or GITHUB_TOKEN environment variable: %w", rostererrors.ErrInvalidToken)
	case c.inspector.IsNotFoundError(err):
		return fmt.Errorf("%s not found: %w", subject, rostererrors.ErrNotFound)
	case c.inspector.IsValidationError(err):
		return fmt.Errorf("%s rejected: %s: %w", subject, errorMessage(err), rostererrors.ErrTargetFailed)
	case c.inspector.IsNetworkError(err):
		return fmt.Errorf("%s: network error connecting to GitHub API: %w", subject, rostererrors.ErrNetworkFailure)
	}
	return fmt.Errorf("%s: %w", subject, err)
}

// errorMessage prefers the API's own message over go-github's full
// request dump.
func errorMessage(err error) string {
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Message != "" {
		return errResp.Message
	}
	return err.Error()
}

func parseCursor(cursor string) (int, error) {
	if cursor == FirstPage {
		return 0, nil
	}
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page cursor %q", cursor)
	}
	return page, nil
}

// nextCursor derives the continuation from the Link header. An empty page
// ends the listing even when a next link is present.
func nextCursor(resp *gh.Response, items int) string {
	if resp == nil || resp.NextPage == 0 || items == 0 {
		return ""
	}
	return strconv.Itoa(resp.NextPage)
}
