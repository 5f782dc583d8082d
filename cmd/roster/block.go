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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-roster/internal/blocklist"
	"github.com/sirseerhq/sirseer-roster/internal/output"
	"github.com/sirseerhq/sirseer-roster/internal/relations"
)

func (a *app) blockCommand() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "block-users",
		Short: "Block every account in a CSV list",
		Long: `Block every account in a CSV list read from --input or stdin.

Only the first field of each record is used; blank lines are skipped.
Accounts that are already blocked are left alone, so the same list can be
run again after a partial failure. Each target is logged as blocked,
already blocked or failed, and written as a row: username, status, reason.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := a.stdin
			if inputPath != "" && inputPath != "-" {
				f, err := os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("failed to open input file: %w", err)
				}
				defer f.Close()
				in = f
				a.run.SetParam("input", inputPath)
			}

			targets, err := readTargets(in)
			if err != nil {
				return err
			}

			w, err := a.openOutput(output.BlockOutcomeColumns)
			if err != nil {
				return err
			}
			defer w.Close()

			var writeErr error
			lister := relations.NewLister(a.client, a.cfg.Fetch.Workers)
			res, err := blocklist.New(a.client, lister).Run(cmd.Context(), targets, func(o blocklist.Outcome) {
				a.run.RecordOutcome(o.Status.String())
				if writeErr == nil {
					writeErr = w.WriteRow([]string{o.Login, o.Status.String(), o.Reason})
				}
			})
			a.run.AddRows(w.Count())
			if err != nil {
				if len(res.Outcomes) > 0 {
					return fmt.Errorf("%w: %w", errIncompleteBlockRun, err)
				}
				return err
			}
			if writeErr != nil {
				return fmt.Errorf("failed to write outcome: %w", writeErr)
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("failed to close output: %w", err)
			}
			if !res.Complete() {
				return fmt.Errorf("%d of %d targets failed: %w", res.Failed, len(res.Outcomes), errIncompleteBlockRun)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "CSV file of usernames (default: stdin)")
	return cmd
}

// readTargets reads usernames from the first field of each CSV record.
// Records whose first field is blank are skipped.
func readTargets(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var targets []string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read targets: %w", err)
		}
		if login := strings.TrimSpace(record[0]); login != "" {
			targets = append(targets, login)
		}
	}
	return targets, nil
}
