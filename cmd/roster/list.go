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

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-roster/internal/accounts"
	"github.com/sirseerhq/sirseer-roster/internal/contributors"
	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/github"
	"github.com/sirseerhq/sirseer-roster/internal/logging"
	"github.com/sirseerhq/sirseer-roster/internal/output"
	"github.com/sirseerhq/sirseer-roster/internal/relations"
)

func (a *app) listCommand(use string, kind github.RelationshipKind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Writes one row per account: username, user_id. Requires a token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			w, err := a.openOutput(output.RelationshipColumns)
			if err != nil {
				return err
			}
			defer w.Close()

			lister := relations.NewLister(a.client, a.cfg.Fetch.Workers)
			n, err := lister.Each(ctx, kind, func(id github.Identity) error {
				return w.WriteRow(identityRecord(id))
			})
			a.run.AddRows(w.Count())
			if err != nil {
				if n > 0 {
					return &rostererrors.PartialError{Op: "listing " + kind.String(), Processed: n, Succeeded: w.Count(), Err: err}
				}
				return err
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("failed to close output: %w", err)
			}

			logging.FromContext(ctx).Info().Str("kind", kind.String()).Int("accounts", n).Msg("listed accounts")
			return nil
		},
	}
}

func identityRecord(id github.Identity) []string {
	return []string{id.Login, strconv.FormatInt(id.ID, 10)}
}

func (a *app) contributorsCommand() *cobra.Command {
	var repoPath string

	cmd := &cobra.Command{
		Use:   "list-pr-contributors --repo-path <owner>/<repo>",
		Short: "Report every author of a repository's pull requests",
		Long: `Report every author of a repository's pull requests, open and closed.

Without a token each row is: username, user_id, pr_count.
With a token four columns are added: days_to_first_pr, display_name,
caller_follows (you follow the author) and followed_by_caller (the
author follows you).

The repository must be specified in the format: <owner>/<repo>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, repo, err := parseRepository(repoPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a.run.SetParam("repository", owner+"/"+repo)

			batcher := accounts.NewBatcher(a.client, a.cfg.Fetch.BatchSize)
			lister := relations.NewLister(a.client, a.cfg.Fetch.Workers)
			report, err := contributors.New(a.client, batcher, lister).Report(ctx, owner, repo)
			if err != nil {
				return err
			}
			a.run.AddAnomalies(len(report.Anomalies))

			w, err := a.openOutput(output.ContributorColumns(report.Enriched))
			if err != nil {
				return err
			}
			defer w.Close()

			for _, row := range report.Rows {
				if err := w.WriteRow(row.Record(report.Enriched)); err != nil {
					a.run.AddRows(w.Count())
					return err
				}
			}
			a.run.AddRows(w.Count())
			return w.Close()
		},
	}

	cmd.Flags().StringVarP(&repoPath, "repo-path", "r", "", "Repository as <owner>/<repo>")
	_ = cmd.MarkFlagRequired("repo-path")
	return cmd
}

// parseRepository parses an owner/repo string into owner and repo components
func parseRepository(repoArg string) (owner, repo string, err error) {
	parts := strings.Split(repoArg, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repository format. Expected: <owner>/<repo>, got: %s", repoArg)
	}

	owner = strings.TrimSpace(parts[0])
	repo = strings.TrimSpace(parts[1])

	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository format. Expected: <owner>/<repo>, got: %s", repoArg)
	}

	return owner, repo, nil
}
