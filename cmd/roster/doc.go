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

// Package main implements the sirseer-roster command-line interface.
// The tool exports an account's social graph, reports who contributes
// pull requests to a repository, and blocks lists of accounts.
//
// The CLI supports:
//   - Exporting followers, following and blocked accounts
//   - A per-author pull request report, enriched when a token is present
//   - Idempotent mass-blocking from a CSV list
//   - CSV (default) or NDJSON output to stdout or a file
//
// Usage:
//
//	sirseer-roster list-pr-contributors --repo-path <owner>/<repo> [flags]
//	sirseer-roster block-users --input spammers.csv
//
// Example:
//
//	export GITHUB_TOKEN=your_token
//	sirseer-roster list-pr-contributors -r golang/go --output contributors.csv
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication, not found or rate limit error
//   - 3: Network error
//   - 4: Block run incomplete (some targets failed, or aborted after progress)
package main
