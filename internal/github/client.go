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

import "context"

// Client is an API session with GitHub. It may be anonymous, in which case
// only public reads are available and operations scoped to the caller's
// account fail with ErrAuthRequired.
//
// Implementations must be safe for concurrent use; all calls made through
// one Client share the same rate-limit budget.
type Client interface {
	// Authenticated reports whether the session carries a token.
	Authenticated() bool

	// ListPullRequests returns one page of a repository's pull requests in
	// every state. Pass FirstPage to start and the returned NextCursor to continue.
	ListPullRequests(ctx context.Context, owner, repo, cursor string) (*Page[PullRequestRecord], error)

	// ListRelationships returns one page of the caller's followers,
	// followed accounts, or blocked accounts.
	ListRelationships(ctx context.Context, kind RelationshipKind, cursor string) (*Page[Identity], error)

	// LookupUsers resolves account metadata for logins in a single request.
	// Logins the server cannot resolve are missing from the result.
	LookupUsers(ctx context.Context, logins []string) (map[string]AccountMetadata, error)

	// BlockUser blocks login on behalf of the caller.
	BlockUser(ctx context.Context, login string) error

	// Viewer returns the authenticated account.
	Viewer(ctx context.Context) (Identity, error)

	// IsFollowing reports whether follower follows target. An empty
	// follower means the authenticated account.
	IsFollowing(ctx context.Context, follower, target string) (bool, error)
}
