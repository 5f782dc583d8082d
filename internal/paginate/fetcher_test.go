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

package paginate

import (
	"context"
	"errors"
	"strconv"
	"testing"

	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/github"
)

// source serves 0..n-1 in pages of size, counting calls.
type source struct {
	n, size int
	calls   int
	failAt  int // 1-based page number, 0 never
	err     error
}

func (s *source) fetch(ctx context.Context, cursor string) (*github.Page[int], error) {
	s.calls++
	page := 1
	if cursor != github.FirstPage {
		page, _ = strconv.Atoi(cursor)
	}
	if page == s.failAt {
		return nil, s.err
	}

	start := (page - 1) * s.size
	end := min(start+s.size, s.n)
	out := &github.Page[int]{}
	for i := start; i < end; i++ {
		out.Items = append(out.Items, i)
	}
	if end < s.n {
		out.NextCursor = strconv.Itoa(page + 1)
	}
	return out, nil
}

func TestFetcher_Completeness(t *testing.T) {
	tests := []struct {
		name      string
		n, size   int
		wantPages int
	}{
		{name: "empty listing", n: 0, size: 10, wantPages: 1},
		{name: "single page", n: 3, size: 10, wantPages: 1},
		{name: "exact multiple", n: 10, size: 5, wantPages: 2},
		{name: "ragged last page", n: 11, size: 5, wantPages: 3},
		{name: "one item per page", n: 7, size: 1, wantPages: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &source{n: tt.n, size: tt.size}
			f := New(src.fetch)

			var got []int
			for f.Next(context.Background()) {
				got = append(got, f.Item())
			}
			if err := f.Err(); err != nil {
				t.Fatalf("Err() = %v", err)
			}

			if len(got) != tt.n {
				t.Fatalf("got %d items, want %d", len(got), tt.n)
			}
			for i, v := range got {
				if v != i {
					t.Fatalf("item %d = %d, out of source order", i, v)
				}
			}
			if f.Pages() != tt.wantPages || src.calls != tt.wantPages {
				t.Errorf("pages = %d, calls = %d, want %d", f.Pages(), src.calls, tt.wantPages)
			}
			if !f.Done() {
				t.Error("fetcher not in terminal state")
			}
		})
	}
}

func TestFetcher_ExhaustedIsTerminal(t *testing.T) {
	src := &source{n: 3, size: 2}
	f := New(src.fetch)
	for f.Next(context.Background()) {
	}
	calls := src.calls

	for i := 0; i < 3; i++ {
		if f.Next(context.Background()) {
			t.Fatal("Next() returned true after exhaustion")
		}
	}
	if src.calls != calls {
		t.Errorf("exhausted fetcher issued %d more calls", src.calls-calls)
	}
}

func TestFetcher_ErrorStopsSequence(t *testing.T) {
	src := &source{n: 10, size: 3, failAt: 2, err: rostererrors.ErrInvalidToken}
	f := New(src.fetch)

	var got []int
	for f.Next(context.Background()) {
		got = append(got, f.Item())
	}

	if !errors.Is(f.Err(), rostererrors.ErrInvalidToken) {
		t.Fatalf("Err() = %v, want ErrInvalidToken", f.Err())
	}
	if len(got) != 3 {
		t.Errorf("yielded %d items before failure, want 3", len(got))
	}
	if f.Next(context.Background()) || src.calls != 2 {
		t.Errorf("failed fetcher resumed: calls = %d", src.calls)
	}
}

func TestFetcher_CancellationBetweenPages(t *testing.T) {
	src := &source{n: 10, size: 2}
	f := New(src.fetch)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := 0
	for f.Next(ctx) {
		n++
		if n == 2 {
			cancel()
		}
	}

	if !errors.Is(f.Err(), context.Canceled) {
		t.Fatalf("Err() = %v, want context.Canceled", f.Err())
	}
	if n != 2 || src.calls != 1 {
		t.Errorf("items = %d, calls = %d; want 2 items from 1 call", n, src.calls)
	}
}

func TestFetcher_StuckCursor(t *testing.T) {
	f := New(func(ctx context.Context, cursor string) (*github.Page[int], error) {
		return &github.Page[int]{Items: []int{1}, NextCursor: "2"}, nil
	})

	n := 0
	for f.Next(context.Background()) {
		n++
		if n > 10 {
			t.Fatal("fetcher looped on a cursor that did not advance")
		}
	}
	if f.Err() == nil {
		t.Error("expected an error for a repeating cursor")
	}
}

func TestFetcher_EmptyPageEndsListing(t *testing.T) {
	calls := 0
	f := New(func(ctx context.Context, cursor string) (*github.Page[int], error) {
		calls++
		return &github.Page[int]{NextCursor: "9"}, nil
	})
	if f.Next(context.Background()) {
		t.Fatal("Next() = true on empty page")
	}
	if f.Err() != nil || calls != 1 {
		t.Errorf("Err() = %v, calls = %d", f.Err(), calls)
	}
}

func TestCollectAndEach(t *testing.T) {
	src := &source{n: 5, size: 2}
	items, err := Collect(context.Background(), src.fetch)
	if err != nil || len(items) != 5 {
		t.Fatalf("Collect() = %v, %v", items, err)
	}

	stop := errors.New("stop")
	src = &source{n: 5, size: 2}
	n, err := Each(context.Background(), src.fetch, func(v int) error {
		if v == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || n != 3 {
		t.Errorf("Each() = %d, %v; want 3, stop", n, err)
	}

	src = &source{n: 5, size: 2, failAt: 3, err: rostererrors.ErrNetworkFailure}
	items, err = Collect(context.Background(), src.fetch)
	if !errors.Is(err, rostererrors.ErrNetworkFailure) || len(items) != 4 {
		t.Errorf("Collect() partial = %v, %v", items, err)
	}
}

func TestFetcher_WithMockClient(t *testing.T) {
	ids := make([]github.Identity, 9)
	for i := range ids {
		ids[i] = github.Identity{Login: "user" + strconv.Itoa(i), ID: int64(i + 1)}
	}
	client := github.NewMockClient(github.WithRelationships(github.Followers, ids...), github.WithPageSize(4))

	got, err := Collect(context.Background(), func(ctx context.Context, cursor string) (*github.Page[github.Identity], error) {
		return client.ListRelationships(ctx, github.Followers, cursor)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 9 || got[8].ID != 9 {
		t.Errorf("got %+v", got)
	}
	if calls := client.RelationshipCalls[github.Followers]; calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
