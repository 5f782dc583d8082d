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
	"fmt"
	"strings"
	"time"
)

// Identity is a GitHub account. ID is the stable key; Login is mutable and
// only used as the target of API calls.
type Identity struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// IsZero reports whether the identity is unset, as for pull requests
// whose author account was deleted.
func (i Identity) IsZero() bool {
	return i.Login == "" && i.ID == 0
}

// AccountMetadata holds the profile fields resolved by the batched lookup.
// CreatedAt and DisplayName are nil when the account could not be resolved.
type AccountMetadata struct {
	Identity
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	DisplayName *string    `json:"display_name,omitempty"`
}

// Resolved reports whether the lookup returned the account.
func (m AccountMetadata) Resolved() bool {
	return m.CreatedAt != nil
}

// PullRequestRecord is one pull request of a repository's history.
// Author is zero for pull requests opened by since-deleted accounts.
type PullRequestRecord struct {
	Number    int       `json:"number"`
	Author    Identity  `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// RelationshipKind selects one of the authenticated account's user lists.
type RelationshipKind int

const (
	// Following lists accounts the caller follows.
	Following RelationshipKind = iota
	// Followers lists accounts following the caller.
	Followers
	// Blocked lists accounts the caller has blocked.
	Blocked
)

func (k RelationshipKind) String() string {
	switch k {
	case Following:
		return "following"
	case Followers:
		return "followers"
	case Blocked:
		return "blocked"
	}
	return fmt.Sprintf("RelationshipKind(%d)", int(k))
}

// ParseRelationshipKind converts a kind name back to its value.
func ParseRelationshipKind(s string) (RelationshipKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "following":
		return Following, nil
	case "followers", "follower":
		return Followers, nil
	case "blocked", "blocks":
		return Blocked, nil
	}
	return 0, fmt.Errorf("unknown relationship kind %q", s)
}

// Page is one page of a listing endpoint.
type Page[T any] struct {
	Items []T
	// NextCursor is empty when the server reported no further pages.
	NextCursor string
}

// FirstPage is the cursor that starts a listing.
const FirstPage = ""

const (
	defaultPageSize = 100
	maxPageSize     = 100
)
