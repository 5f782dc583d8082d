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
	"fmt"
	"strconv"
	"strings"
	"sync"

	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
)

// MockClient is an in-memory implementation of the Client interface for testing.
// Listings are served in pages of PageSize items using page-number cursors,
// like the REST API.
type MockClient struct {
	mu sync.Mutex

	// Anonymous makes Authenticated return false and account-scoped calls
	// fail with ErrAuthRequired.
	Anonymous bool

	// PageSize splits listings into pages. Zero serves everything at once.
	PageSize int

	// PullRequests to return from ListPullRequests.
	PullRequests []PullRequestRecord

	// Relationships per kind. Successful blocks are appended to Blocked.
	Relationships map[RelationshipKind][]Identity

	// Metadata resolvable by LookupUsers, keyed by lower-case login.
	Metadata map[string]AccountMetadata

	// Follows holds follow edges as "follower->target", lower-case.
	Follows map[string]bool

	// ViewerIdentity is returned by Viewer.
	ViewerIdentity Identity

	// Error to return from every call.
	Error error

	// BlockErrors fails BlockUser for specific lower-case logins.
	BlockErrors map[string]error

	// LookupError is consulted before each LookupUsers call.
	LookupError func(logins []string) error

	// PageError is consulted before each listing call; page counts from 1.
	PageError func(page int) error

	// Track calls for verification
	PullRequestCalls  int
	RelationshipCalls map[RelationshipKind]int
	LookupCalls       [][]string
	BlockCalls        []string
	LastOwner         string
	LastRepo          string
}

// Compile-time check that MockClient implements Client
var _ Client = (*MockClient)(nil)

// MockClientOption allows configuring the mock client
type MockClientOption func(*MockClient)

// NewMockClient creates an authenticated mock client with no data.
func NewMockClient(opts ...MockClientOption) *MockClient {
	m := &MockClient{
		Relationships:     make(map[RelationshipKind][]Identity),
		Metadata:          make(map[string]AccountMetadata),
		Follows:           make(map[string]bool),
		BlockErrors:       make(map[string]error),
		RelationshipCalls: make(map[RelationshipKind]int),
		ViewerIdentity:    Identity{Login: "viewer", ID: 1},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithAnonymousSession makes the client unauthenticated.
func WithAnonymousSession() MockClientOption {
	return func(m *MockClient) {
		m.Anonymous = true
	}
}

// WithPageSize sets the listing page size.
func WithPageSize(n int) MockClientOption {
	return func(m *MockClient) {
		m.PageSize = n
	}
}

// WithPullRequests sets specific pull requests to return
func WithPullRequests(prs ...PullRequestRecord) MockClientOption {
	return func(m *MockClient) {
		m.PullRequests = prs
	}
}

// WithRelationships sets the accounts listed for kind.
func WithRelationships(kind RelationshipKind, ids ...Identity) MockClientOption {
	return func(m *MockClient) {
		m.Relationships[kind] = ids
	}
}

// WithMetadata registers resolvable accounts.
func WithMetadata(metas ...AccountMetadata) MockClientOption {
	return func(m *MockClient) {
		for _, meta := range metas {
			m.Metadata[strings.ToLower(meta.Login)] = meta
		}
	}
}

// WithFollow records that follower follows target.
func WithFollow(follower, target string) MockClientOption {
	return func(m *MockClient) {
		m.Follows[followKey(follower, target)] = true
	}
}

// WithBlockError makes BlockUser fail for login.
func WithBlockError(login string, err error) MockClientOption {
	return func(m *MockClient) {
		m.BlockErrors[strings.ToLower(login)] = err
	}
}

// WithError makes the client return a specific error
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// Authenticated implements the Client interface
func (m *MockClient) Authenticated() bool {
	return !m.Anonymous
}

// ListPullRequests implements the Client interface
func (m *MockClient) ListPullRequests(ctx context.Context, owner, repo, cursor string) (*Page[PullRequestRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PullRequestCalls++
	m.LastOwner = owner
	m.LastRepo = repo

	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if owner == "nonexistent" {
		return nil, fmt.Errorf("repository '%s/%s' not found: %w", owner, repo, rostererrors.ErrNotFound)
	}
	return servePage(m.PullRequests, cursor, m.PageSize, m.PageError)
}

// ListRelationships implements the Client interface
func (m *MockClient) ListRelationships(ctx context.Context, kind RelationshipKind, cursor string) (*Page[Identity], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RelationshipCalls[kind]++

	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if m.Anonymous {
		return nil, fmt.Errorf("listing %s: %w", kind, rostererrors.ErrAuthRequired)
	}
	return servePage(m.Relationships[kind], cursor, m.PageSize, m.PageError)
}

// LookupUsers implements the Client interface
func (m *MockClient) LookupUsers(ctx context.Context, logins []string) (map[string]AccountMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LookupCalls = append(m.LookupCalls, append([]string(nil), logins...))

	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if m.Anonymous {
		return nil, fmt.Errorf("user lookup: %w", rostererrors.ErrAuthRequired)
	}
	if m.LookupError != nil {
		if err := m.LookupError(logins); err != nil {
			return nil, err
		}
	}

	out := make(map[string]AccountMetadata, len(logins))
	for _, login := range logins {
		if meta, ok := m.Metadata[strings.ToLower(login)]; ok {
			out[login] = meta
		}
	}
	return out, nil
}

// BlockUser implements the Client interface
func (m *MockClient) BlockUser(ctx context.Context, login string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BlockCalls = append(m.BlockCalls, login)

	if err := m.check(ctx); err != nil {
		return err
	}
	if m.Anonymous {
		return fmt.Errorf("blocking %s: %w", login, rostererrors.ErrAuthRequired)
	}
	if err := m.BlockErrors[strings.ToLower(login)]; err != nil {
		return err
	}

	m.Relationships[Blocked] = append(m.Relationships[Blocked], m.identityFor(login))
	return nil
}

// Viewer implements the Client interface
func (m *MockClient) Viewer(ctx context.Context) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx); err != nil {
		return Identity{}, err
	}
	if m.Anonymous {
		return Identity{}, fmt.Errorf("viewer: %w", rostererrors.ErrAuthRequired)
	}
	return m.ViewerIdentity, nil
}

// IsFollowing implements the Client interface
func (m *MockClient) IsFollowing(ctx context.Context, follower, target string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx); err != nil {
		return false, err
	}
	if follower == "" {
		if m.Anonymous {
			return false, fmt.Errorf("checking follow of %s: %w", target, rostererrors.ErrAuthRequired)
		}
		follower = m.ViewerIdentity.Login
	}
	return m.Follows[followKey(follower, target)], nil
}

// Blocks returns the logins BlockUser succeeded for, in call order.
func (m *MockClient) Blocks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, login := range m.BlockCalls {
		if m.BlockErrors[strings.ToLower(login)] == nil {
			out = append(out, login)
		}
	}
	return out
}

func (m *MockClient) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Error
}

// identityFor finds the id of a known account or derives a stable one.
func (m *MockClient) identityFor(login string) Identity {
	if meta, ok := m.Metadata[strings.ToLower(login)]; ok {
		return meta.Identity
	}
	for _, ids := range m.Relationships {
		for _, id := range ids {
			if strings.EqualFold(id.Login, login) {
				return id
			}
		}
	}
	var h int64 = 1000
	for _, r := range strings.ToLower(login) {
		h = h*31 + int64(r)
	}
	if h < 0 {
		h = -h
	}
	return Identity{Login: login, ID: h}
}

func followKey(follower, target string) string {
	return strings.ToLower(follower) + "->" + strings.ToLower(target)
}

// servePage serves items in pages with REST-style page-number cursors.
func servePage[T any](items []T, cursor string, size int, pageErr func(int) error) (*Page[T], error) {
	page := 1
	if cursor != FirstPage {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid page cursor %q", cursor)
		}
		page = n
	}
	if pageErr != nil {
		if err := pageErr(page); err != nil {
			return nil, err
		}
	}

	if size <= 0 {
		size = len(items)
		if size == 0 {
			size = 1
		}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return &Page[T]{Items: []T{}}, nil
	}
	end := start + size
	out := &Page[T]{Items: append([]T(nil), items[start:min(end, len(items))]...)}
	if end < len(items) {
		out.NextCursor = strconv.Itoa(page + 1)
	}
	return out, nil
}
