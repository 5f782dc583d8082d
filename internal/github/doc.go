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

// Package github is the API session used by every roster operation. It
// wraps GitHub's REST API (via go-github) and GraphQL API (via
// shurcooL/graphql) behind the Client interface, and routes both through a
// single HTTP transport chain that shares one rate-limit tracker.
//
// The package includes:
//   - A Client interface covering paginated listings, batched account
//     lookup and the block mutation
//   - GitHubClient, the REST+GraphQL implementation
//   - Transports for authentication, immediate network retries and
//     rate-limit suspension
//   - MockClient, an in-memory implementation for tests
//
// Basic usage:
//
//	client, err := github.NewGitHubClient(github.Options{
//	    Token:    os.Getenv("GITHUB_TOKEN"),
//	    AutoWait: true,
//	})
//	if err != nil {
//	    // Handle error
//	}
//	page, err := client.ListPullRequests(ctx, "golang", "go", github.FirstPage)
package github
