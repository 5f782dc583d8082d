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

// Package contributors builds the per-author pull request report for a
// repository.
//
// The report has two tiers. Every session gets one row per distinct
// author with a pull request count. An authenticated session additionally
// gets each author's display name, the number of days between account
// creation and the author's first pull request, and whether the caller
// and the author follow each other.
package contributors

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sirseerhq/sirseer-roster/internal/accounts"
	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/github"
	"github.com/sirseerhq/sirseer-roster/internal/logging"
	"github.com/sirseerhq/sirseer-roster/internal/paginate"
	"github.com/sirseerhq/sirseer-roster/internal/relations"
)

const day = 24 * time.Hour

// Row is one author of the report. Optional fields are nil when the
// session is anonymous or the author's account could not be resolved.
type Row struct {
	Identity github.Identity
	PRCount  int
	FirstPR  time.Time

	DaysToFirstPR    *int
	DisplayName      *string
	CallerFollows    *bool
	FollowedByCaller *bool
}

// Record renders the row in column order. Enriched rows carry the four
// optional columns; absent values are empty cells.
func (r Row) Record(enriched bool) []string {
	rec := []string{
		r.Identity.Login,
		strconv.FormatInt(r.Identity.ID, 10),
		strconv.Itoa(r.PRCount),
	}
	if !enriched {
		return rec
	}
	return append(rec,
		optionalInt(r.DaysToFirstPR),
		optionalString(r.DisplayName),
		optionalBool(r.CallerFollows),
		optionalBool(r.FollowedByCaller),
	)
}

// Anomaly is an author whose first pull request predates their account.
// The row's day count is clamped to zero; Days keeps the raw value.
type Anomaly struct {
	Identity       github.Identity
	AccountCreated time.Time
	FirstPR        time.Time
	Days           int
}

// Report is the result of one aggregation run.
type Report struct {
	Owner        string
	Repo         string
	Rows         []Row
	Enriched     bool
	PullRequests int
	Pages        int
	Skipped      int
	Anomalies    []Anomaly
}

// Aggregator produces contributor reports.
type Aggregator struct {
	client  github.Client
	batcher *accounts.Batcher
	lister  *relations.Lister
}

// New creates an Aggregator. A nil batcher or lister gets a default one
// over client.
func New(client github.Client, batcher *accounts.Batcher, lister *relations.Lister) *Aggregator {
	if batcher == nil {
		batcher = accounts.NewBatcher(client, accounts.DefaultBatchSize)
	}
	if lister == nil {
		lister = relations.NewLister(client, relations.DefaultWorkers)
	}
	return &Aggregator{client: client, batcher: batcher, lister: lister}
}

type group struct {
	identity github.Identity
	count    int
	first    time.Time
}

// Report aggregates every pull request of owner/repo into rows sorted by
// login. A fatal error after pull requests were scanned is returned as a
// *errors.PartialError.
func (a *Aggregator) Report(ctx context.Context, owner, repo string) (*Report, error) {
	log := logging.FromContext(ctx).With().Str("repo", owner+"/"+repo).Logger()
	report := &Report{Owner: owner, Repo: repo}

	groups := make(map[string]*group)
	var order []string
	prs := paginate.New(func(ctx context.Context, cursor string) (*github.Page[github.PullRequestRecord], error) {
		return a.client.ListPullRequests(ctx, owner, repo, cursor)
	})
	for prs.Next(ctx) {
		pr := prs.Item()
		report.PullRequests++
		if pr.Author.IsZero() {
			report.Skipped++
			continue
		}
		key := authorKey(pr.Author)
		g, ok := groups[key]
		if !ok {
			g = &group{identity: pr.Author, first: pr.CreatedAt}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		if pr.CreatedAt.Before(g.first) {
			g.first = pr.CreatedAt
		}
	}
	report.Pages = prs.Pages()
	if err := prs.Err(); err != nil {
		return nil, partial("pull request scan", report.PullRequests, len(groups), err)
	}
	log.Debug().
		Int("pull_requests", report.PullRequests).
		Int("pages", report.Pages).
		Int("authors", len(groups)).
		Int("skipped", report.Skipped).
		Msg("scanned pull requests")

	report.Rows = make([]Row, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		report.Rows = append(report.Rows, Row{Identity: g.identity, PRCount: g.count, FirstPR: g.first})
	}

	if a.client.Authenticated() {
		if err := a.enrich(ctx, report); err != nil {
			return nil, partial("contributor enrichment", report.PullRequests, len(report.Rows), err)
		}
		report.Enriched = true
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		li, lj := strings.ToLower(report.Rows[i].Identity.Login), strings.ToLower(report.Rows[j].Identity.Login)
		if li != lj {
			return li < lj
		}
		return report.Rows[i].Identity.ID < report.Rows[j].Identity.ID
	})

	log.Info().
		Int("authors", len(report.Rows)).
		Bool("enriched", report.Enriched).
		Int("anomalies", len(report.Anomalies)).
		Msg("contributor report ready")
	return report, nil
}

// enrich resolves metadata and the caller's follow sets concurrently and
// fills the optional columns.
func (a *Aggregator) enrich(ctx context.Context, report *Report) error {
	logins := make([]string, len(report.Rows))
	for i, row := range report.Rows {
		logins[i] = row.Identity.Login
	}

	var (
		metadata map[string]github.AccountMetadata
		sets     map[github.RelationshipKind]*relations.Set
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metadata, err = a.batcher.Resolve(gctx, logins)
		return err
	})
	g.Go(func() error {
		var err error
		sets, err = a.lister.ListMany(gctx, github.Following, github.Followers)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	log := logging.FromContext(ctx)
	following, followers := sets[github.Following], sets[github.Followers]
	for i := range report.Rows {
		row := &report.Rows[i]

		if meta, ok := accounts.Lookup(metadata, row.Identity.Login); ok {
			row.DisplayName = meta.DisplayName
			if meta.CreatedAt != nil {
				days := int(row.FirstPR.Sub(*meta.CreatedAt) / day)
				if row.FirstPR.Before(*meta.CreatedAt) {
					report.Anomalies = append(report.Anomalies, Anomaly{
						Identity:       row.Identity,
						AccountCreated: *meta.CreatedAt,
						FirstPR:        row.FirstPR,
						Days:           days,
					})
					log.Warn().
						Str("login", row.Identity.Login).
						Int64("id", row.Identity.ID).
						Time("account_created", *meta.CreatedAt).
						Time("first_pr", row.FirstPR).
						Int("days", days).
						Msg("first pull request predates account creation, reporting 0 days")
					days = 0
				}
				row.DaysToFirstPR = &days
			}
		}

		callerFollows := contains(following, row.Identity)
		followedBy := contains(followers, row.Identity)
		row.CallerFollows = &callerFollows
		row.FollowedByCaller = &followedBy
	}
	return nil
}

func contains(set *relations.Set, id github.Identity) bool {
	if set == nil {
		return false
	}
	if id.ID != 0 {
		return set.ContainsID(id.ID)
	}
	return set.Contains(id.Login)
}

func authorKey(id github.Identity) string {
	if id.ID != 0 {
		return "id:" + strconv.FormatInt(id.ID, 10)
	}
	return "login:" + strings.ToLower(id.Login)
}

// partial wraps a fatal error with progress counts when work was done.
func partial(op string, processed, succeeded int, err error) error {
	if processed == 0 {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &rostererrors.PartialError{Op: op, Processed: processed, Succeeded: succeeded, Err: err}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
