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

// Package paginate walks cursor-based listing endpoints to completion.
//
// A Fetcher holds at most one page in memory and yields its items in
// server order. It never reorders or de-duplicates; consumers that need
// set semantics do that themselves. Rate limiting is the session's
// concern, so a Fetcher simply issues one call per page.
//
//	f := paginate.New(func(ctx context.Context, cursor string) (*github.Page[github.Identity], error) {
//	    return client.ListRelationships(ctx, github.Followers, cursor)
//	})
//	for f.Next(ctx) {
//	    use(f.Item())
//	}
//	if err := f.Err(); err != nil {
//	    // Handle error
//	}
package paginate

import (
	"context"
	"fmt"

	"github.com/sirseerhq/sirseer-roster/internal/github"
)

// PageFunc fetches the page identified by cursor. The first call receives
// github.FirstPage.
type PageFunc[T any] func(ctx context.Context, cursor string) (*github.Page[T], error)

type state int

const (
	stateReady state = iota
	stateExhausted
	stateFailed
)

// Fetcher is a lazy iterator over a paginated listing. It is not safe for
// concurrent use and cannot be rewound; build a new one to start over.
type Fetcher[T any] struct {
	fetch  PageFunc[T]
	cursor string
	items  []T
	pos    int
	item   T
	state  state
	pages  int
	err    error
}

// New returns a Fetcher positioned before the first page.
func New[T any](fetch PageFunc[T]) *Fetcher[T] {
	return &Fetcher[T]{fetch: fetch, cursor: github.FirstPage}
}

// Next advances to the next item, fetching the following page when the
// current one is used up. It returns false once the listing is exhausted
// or a fetch failed; check Err to tell the two apart.
func (f *Fetcher[T]) Next(ctx context.Context) bool {
	for {
		if f.pos < len(f.items) {
			f.item = f.items[f.pos]
			f.pos++
			return true
		}
		if f.state != stateReady {
			return false
		}
		if err := ctx.Err(); err != nil {
			f.fail(err)
			return false
		}

		page, err := f.fetch(ctx, f.cursor)
		if err != nil {
			f.fail(err)
			return false
		}
		if page == nil {
			f.fail(fmt.Errorf("page %d: no page returned", f.pages+1))
			return false
		}
		f.pages++
		f.items = page.Items
		f.pos = 0

		switch {
		case len(page.Items) == 0, page.NextCursor == "":
			f.state = stateExhausted
		case page.NextCursor == f.cursor:
			f.fail(fmt.Errorf("page %d: cursor %q did not advance", f.pages, f.cursor))
		default:
			f.cursor = page.NextCursor
		}
	}
}

func (f *Fetcher[T]) fail(err error) {
	f.state = stateFailed
	f.err = err
	f.items = nil
	f.pos = 0
}

// Item returns the item Next advanced to.
func (f *Fetcher[T]) Item() T {
	return f.item
}

// Err returns the error that stopped iteration, or nil if the listing
// was exhausted.
func (f *Fetcher[T]) Err() error {
	return f.err
}

// Pages returns the number of pages fetched so far.
func (f *Fetcher[T]) Pages() int {
	return f.pages
}

// Done reports whether the fetcher reached a terminal state.
func (f *Fetcher[T]) Done() bool {
	return f.state != stateReady && f.pos >= len(f.items)
}

// Each calls fn for every item in order, stopping at the first error from
// either the listing or fn. It returns the number of items passed to fn
// without error.
func Each[T any](ctx context.Context, fetch PageFunc[T], fn func(T) error) (int, error) {
	f := New(fetch)
	n := 0
	for f.Next(ctx) {
		if err := fn(f.Item()); err != nil {
			return n, err
		}
		n++
	}
	return n, f.Err()
}

// Collect drains the listing into a slice. On error the items gathered so
// far are returned with it.
func Collect[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var out []T
	_, err := Each(ctx, fetch, func(item T) error {
		out = append(out, item)
		return nil
	})
	return out, err
}
