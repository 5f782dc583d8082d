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

// Package accounts resolves account metadata for sets of logins through
// the session's batched lookup endpoint.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/github"
	"github.com/sirseerhq/sirseer-roster/internal/logging"
)

// DefaultBatchSize is the number of logins resolved per lookup request.
const DefaultBatchSize = 50

// MaxBatchSize bounds configured batch sizes.
const MaxBatchSize = 100

// Batcher resolves AccountMetadata in fixed-size chunks.
type Batcher struct {
	client github.Client
	size   int
}

// NewBatcher creates a Batcher. A size outside 1..MaxBatchSize falls back
// to DefaultBatchSize.
func NewBatcher(client github.Client, size int) *Batcher {
	if size < 1 || size > MaxBatchSize {
		size = DefaultBatchSize
	}
	return &Batcher{client: client, size: size}
}

// BatchSize returns the chunk size in use.
func (b *Batcher) BatchSize() int {
	return b.size
}

// Resolve looks up every login and returns metadata keyed by the login as
// first given. Logins are compared case-insensitively, so duplicates
// differing only in case are looked up once.
//
// An anonymous session yields an empty map without any request. Logins the
// server could not resolve, or whose chunk failed, map to metadata with
// only the login set. A chunk failure is logged and skipped; an error that
// breaks the whole session stops the loop and is returned together with
// everything resolved so far.
func (b *Batcher) Resolve(ctx context.Context, logins []string) (map[string]github.AccountMetadata, error) {
	out := make(map[string]github.AccountMetadata)
	if !b.client.Authenticated() {
		return out, nil
	}

	unique := dedupe(logins)
	log := logging.FromContext(ctx)

	for start := 0; start < len(unique); start += b.size {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		chunk := unique[start:min(start+b.size, len(unique))]
		found, err := b.client.LookupUsers(ctx, chunk)
		if err != nil {
			if fatal(err) {
				return out, fmt.Errorf("resolving accounts after %d of %d: %w", len(out), len(unique), err)
			}
			log.Warn().Err(err).
				Int("chunk_start", start).
				Int("chunk_size", len(chunk)).
				Msg("account lookup chunk failed, continuing without metadata")
			found = nil
		}

		for _, login := range chunk {
			meta, ok := found[login]
			if !ok {
				meta = github.AccountMetadata{Identity: github.Identity{Login: login}}
			}
			out[login] = meta
		}
	}

	log.Debug().Int("logins", len(unique)).Int("batch_size", b.size).Msg("resolved account metadata")
	return out, nil
}

// fatal reports whether a lookup error makes further chunks pointless.
func fatal(err error) bool {
	return errors.Is(err, rostererrors.ErrInvalidToken) ||
		errors.Is(err, rostererrors.ErrAuthRequired) ||
		errors.Is(err, rostererrors.ErrRateLimit) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func dedupe(logins []string) []string {
	seen := make(map[string]bool, len(logins))
	out := make([]string, 0, len(logins))
	for _, login := range logins {
		login = strings.TrimSpace(login)
		key := strings.ToLower(login)
		if login == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, login)
	}
	return out
}

// Lookup returns the metadata for login from a Resolve result, matching
// case-insensitively.
func Lookup(resolved map[string]github.AccountMetadata, login string) (github.AccountMetadata, bool) {
	if meta, ok := resolved[login]; ok {
		return meta, true
	}
	for k, meta := range resolved {
		if strings.EqualFold(k, login) {
			return meta, true
		}
	}
	return github.AccountMetadata{}, false
}
