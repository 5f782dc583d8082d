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

// Package blocklist blocks a list of accounts for the authenticated user.
//
// A run first reads the current block list, then walks the targets in
// input order. Targets that are already blocked are skipped without a
// request, so a run can be repeated with the same input after a partial
// failure. Blocks are issued one at a time.
package blocklist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/github"
	"github.com/sirseerhq/sirseer-roster/internal/logging"
	"github.com/sirseerhq/sirseer-roster/internal/relations"
)

// Status is the result of one block target.
type Status int

const (
	Blocked Status = iota
	AlreadyBlocked
	Failed
)

func (s Status) String() string {
	switch s {
	case Blocked:
		return "blocked"
	case AlreadyBlocked:
		return "already_blocked"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome is the result for one input entry. Reason is set for Failed.
type Outcome struct {
	Login  string
	Status Status
	Reason string
}

// Result holds the outcomes of a run in input order with per-status counts.
type Result struct {
	Outcomes       []Outcome
	Blocked        int
	AlreadyBlocked int
	Failed         int
}

func (r *Result) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case Blocked:
		r.Blocked++
	case AlreadyBlocked:
		r.AlreadyBlocked++
	case Failed:
		r.Failed++
	}
}

// Complete reports whether every target was blocked or already blocked.
func (r *Result) Complete() bool {
	return r.Failed == 0
}

var errEmptyLogin = errors.New("empty username")

// Reconciler brings the caller's block list in line with a target list.
type Reconciler struct {
	client github.Client
	lister *relations.Lister
}

// New creates a Reconciler. A nil lister gets a default one over client.
func New(client github.Client, lister *relations.Lister) *Reconciler {
	if lister == nil {
		lister = relations.NewLister(client, relations.DefaultWorkers)
	}
	return &Reconciler{client: client, lister: lister}
}

// Run blocks every target that is not blocked yet. onOutcome, when not
// nil, is called after each target in input order.
//
// Failures scoped to one target (unknown user, rejected request) are
// recorded as Failed and the run continues. Session-wide failures abort
// the run: the outcomes recorded so far are returned together with the
// error, which is a *errors.PartialError once any target was handled.
func (r *Reconciler) Run(ctx context.Context, targets []string, onOutcome func(Outcome)) (*Result, error) {
	log := logging.FromContext(ctx)
	result := &Result{Outcomes: make([]Outcome, 0, len(targets))}

	blocked, err := r.lister.List(ctx, github.Blocked)
	if err != nil {
		return result, fmt.Errorf("reading current blocks: %w", err)
	}
	log.Info().Int("blocked", blocked.Len()).Int("targets", len(targets)).Msg("starting block run")

	for _, target := range targets {
		login := strings.TrimSpace(target)

		var outcome Outcome
		switch {
		case login == "":
			outcome = Outcome{Login: target, Status: Failed, Reason: errEmptyLogin.Error()}
		case blocked.Contains(login):
			outcome = Outcome{Login: login, Status: AlreadyBlocked}
		default:
			if err := ctx.Err(); err != nil {
				return result, r.abort(result, err)
			}
			if err := r.client.BlockUser(ctx, login); err != nil {
				if rostererrors.IsFatal(err) {
					return result, r.abort(result, err)
				}
				outcome = Outcome{Login: login, Status: Failed, Reason: err.Error()}
			} else {
				blocked.Add(github.Identity{Login: login})
				outcome = Outcome{Login: login, Status: Blocked}
			}
		}

		result.add(outcome)
		logOutcome(log, outcome)
		if onOutcome != nil {
			onOutcome(outcome)
		}
	}

	log.Info().
		Int("blocked", result.Blocked).
		Int("already_blocked", result.AlreadyBlocked).
		Int("failed", result.Failed).
		Msg("block run finished")
	return result, nil
}

func (r *Reconciler) abort(result *Result, err error) error {
	if len(result.Outcomes) == 0 {
		return fmt.Errorf("block run: %w", err)
	}
	return &rostererrors.PartialError{
		Op:        "block run",
		Processed: len(result.Outcomes),
		Succeeded: result.Blocked + result.AlreadyBlocked,
		Err:       err,
	}
}

func logOutcome(log *zerolog.Logger, o Outcome) {
	switch o.Status {
	case Blocked:
		log.Info().Str("login", o.Login).Msg("blocked")
	case AlreadyBlocked:
		log.Warn().Str("login", o.Login).Msg("already blocked")
	default:
		log.Error().Str("login", o.Login).Str("reason", o.Reason).Msg("block failed")
	}
}
