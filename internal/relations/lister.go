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

// Package relations lists the authenticated account's followers, followed
// accounts and blocks as de-duplicated sets.
package relations

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/github"
	"github.com/sirseerhq/sirseer-roster/internal/logging"
	"github.com/sirseerhq/sirseer-roster/internal/paginate"
)

// DefaultWorkers bounds how many listings ListMany drains at once.
const DefaultWorkers = 2

// Set is the relationship rows of one kind, unique by account id.
type Set struct {
	kind   github.RelationshipKind
	size   int
	ids    map[int64]struct{}
	logins map[string]struct{}
}

// NewSet creates an empty set.
func NewSet(kind github.RelationshipKind) *Set {
	return &Set{
		kind:   kind,
		ids:    make(map[int64]struct{}),
		logins: make(map[string]struct{}),
	}
}

// Kind returns the relationship the set holds.
func (s *Set) Kind() github.RelationshipKind {
	return s.kind
}

// Add inserts id and reports whether it was new. Accounts are keyed by id;
// an identity without an id (known only by login) is keyed by login.
func (s *Set) Add(id github.Identity) bool {
	login := strings.ToLower(id.Login)
	if id.ID != 0 {
		if _, ok := s.ids[id.ID]; ok {
			return false
		}
		s.ids[id.ID] = struct{}{}
	} else if _, ok := s.logins[login]; ok || login == "" {
		return false
	}
	if login != "" {
		s.logins[login] = struct{}{}
	}
	s.size++
	return true
}

// Len returns the number of accounts in the set.
func (s *Set) Len() int {
	return s.size
}

// Contains reports whether an account with login is in the set, ignoring case.
func (s *Set) Contains(login string) bool {
	_, ok := s.logins[strings.ToLower(login)]
	return ok
}

// ContainsID reports whether the account id is in the set.
func (s *Set) ContainsID(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Lister drains relationship listings for the authenticated account.
type Lister struct {
	client  github.Client
	workers int
}

// NewLister creates a Lister. workers bounds ListMany's parallelism.
func NewLister(client github.Client, workers int) *Lister {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Lister{client: client, workers: workers}
}

// List returns the complete, de-duplicated set for kind.
func (l *Lister) List(ctx context.Context, kind github.RelationshipKind) (*Set, error) {
	set := NewSet(kind)
	if _, err := l.each(ctx, set, func(github.Identity) error { return nil }); err != nil {
		return nil, err
	}
	return set, nil
}

// Each streams the listing for kind, calling fn once per distinct account
// in server order. It returns how many accounts fn accepted.
func (l *Lister) Each(ctx context.Context, kind github.RelationshipKind, fn func(github.Identity) error) (int, error) {
	return l.each(ctx, NewSet(kind), fn)
}

func (l *Lister) each(ctx context.Context, set *Set, fn func(github.Identity) error) (int, error) {
	kind := set.Kind()
	if !l.client.Authenticated() {
		return 0, fmt.Errorf("listing %s: %w", kind, rostererrors.ErrAuthRequired)
	}

	log := logging.FromContext(ctx)
	dupes := 0
	n, err := paginate.Each(ctx, func(ctx context.Context, cursor string) (*github.Page[github.Identity], error) {
		return l.client.ListRelationships(ctx, kind, cursor)
	}, func(id github.Identity) error {
		if !set.Add(id) {
			dupes++
			return nil
		}
		return fn(id)
	})
	emitted := n - dupes
	if dupes > 0 {
		log.Debug().Str("kind", kind.String()).Int("duplicates", dupes).Msg("dropped repeated accounts")
	}
	if err != nil {
		return emitted, err
	}

	log.Debug().Str("kind", kind.String()).Int("accounts", set.Len()).Msg("listed relationships")
	return emitted, nil
}

// ListMany drains several listings concurrently, at most workers at a time.
// All listings share the session's rate-limit tracker. The first error
// cancels the remaining listings.
func (l *Lister) ListMany(ctx context.Context, kinds ...github.RelationshipKind) (map[github.RelationshipKind]*Set, error) {
	var mu sync.Mutex
	out := make(map[github.RelationshipKind]*Set, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for _, kind := range kinds {
		g.Go(func() error {
			set, err := l.List(gctx, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			out[kind] = set
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
