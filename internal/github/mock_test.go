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
	"testing"
	"time"

	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
)

func TestMockClient_Pagination(t *testing.T) {
	ctx := context.Background()
	prs := make([]PullRequestRecord, 5)
	for i := range prs {
		prs[i] = PullRequestRecord{Number: i + 1, Author: Identity{Login: "alice", ID: 1}, CreatedAt: time.Unix(int64(i), 0)}
	}
	mock := NewMockClient(WithPullRequests(prs...), WithPageSize(2))

	var got []int
	cursor := FirstPage
	pages := 0
	for {
		page, err := mock.ListPullRequests(ctx, "octo", "repo", cursor)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		pages++
		for _, pr := range page.Items {
			got = append(got, pr.Number)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if pages != 3 {
		t.Errorf("expected 3 pages, got %d", pages)
	}
	if fmt.Sprint(got) != "[1 2 3 4 5]" {
		t.Errorf("got %v", got)
	}
	if mock.PullRequestCalls != 3 || mock.LastOwner != "octo" || mock.LastRepo != "repo" {
		t.Errorf("call tracking = %d %q %q", mock.PullRequestCalls, mock.LastOwner, mock.LastRepo)
	}
}

func TestMockClient_Anonymous(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient(WithAnonymousSession())

	if mock.Authenticated() {
		t.Fatal("anonymous mock reports authenticated")
	}
	if _, err := mock.ListRelationships(ctx, Followers, FirstPage); !errors.Is(err, rostererrors.ErrAuthRequired) {
		t.Errorf("ListRelationships error = %v, want ErrAuthRequired", err)
	}
	if _, err := mock.LookupUsers(ctx, []string{"a"}); !errors.Is(err, rostererrors.ErrAuthRequired) {
		t.Errorf("LookupUsers error = %v, want ErrAuthRequired", err)
	}
	if err := mock.BlockUser(ctx, "a"); !errors.Is(err, rostererrors.ErrAuthRequired) {
		t.Errorf("BlockUser error = %v, want ErrAuthRequired", err)
	}
	if _, err := mock.ListPullRequests(ctx, "octo", "repo", FirstPage); err != nil {
		t.Errorf("anonymous ListPullRequests error = %v", err)
	}
}

func TestMockClient_BlockUpdatesBlockedList(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient(
		WithMetadata(AccountMetadata{Identity: Identity{Login: "spammer", ID: 66}}),
		WithBlockError("ghost", fmt.Errorf("user 'ghost' not found: %w", rostererrors.ErrNotFound)),
	)

	if err := mock.BlockUser(ctx, "Spammer"); err != nil {
		t.Fatalf("BlockUser error = %v", err)
	}
	if err := mock.BlockUser(ctx, "ghost"); !errors.Is(err, rostererrors.ErrNotFound) {
		t.Fatalf("BlockUser(ghost) error = %v, want ErrNotFound", err)
	}

	page, err := mock.ListRelationships(ctx, Blocked, FirstPage)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != 66 {
		t.Errorf("blocked list = %+v, want spammer id 66", page.Items)
	}
	if got := mock.Blocks(); len(got) != 1 || got[0] != "Spammer" {
		t.Errorf("Blocks() = %v", got)
	}
}

func TestMockClient_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("configured error", func(t *testing.T) {
		mock := NewMockClient(WithError(rostererrors.ErrNetworkFailure))
		if _, err := mock.ListPullRequests(ctx, "o", "r", FirstPage); !errors.Is(err, rostererrors.ErrNetworkFailure) {
			t.Errorf("error = %v, want ErrNetworkFailure", err)
		}
	})

	t.Run("nonexistent repository", func(t *testing.T) {
		mock := NewMockClient()
		if _, err := mock.ListPullRequests(ctx, "nonexistent", "repo", FirstPage); !errors.Is(err, rostererrors.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		mock := NewMockClient()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := mock.Viewer(cctx); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("bad cursor", func(t *testing.T) {
		mock := NewMockClient()
		if _, err := mock.ListPullRequests(ctx, "o", "r", "zero"); err == nil {
			t.Error("expected error for invalid cursor")
		}
	})
}

func TestMockClient_IsFollowing(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient(WithFollow("viewer", "alice"), WithFollow("bob", "viewer"))

	tests := []struct {
		follower, target string
		want             bool
	}{
		{"", "alice", true},
		{"", "bob", false},
		{"Bob", "viewer", true},
		{"alice", "viewer", false},
	}
	for _, tt := range tests {
		got, err := mock.IsFollowing(ctx, tt.follower, tt.target)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("IsFollowing(%q, %q) = %v, want %v", tt.follower, tt.target, got, tt.want)
		}
	}
}
