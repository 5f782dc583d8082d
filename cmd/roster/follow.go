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

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-roster/internal/logging"
)

func (a *app) checkFollowCommand() *cobra.Command {
	var follower, user string

	cmd := &cobra.Command{
		Use:   "check-follow --follower <login> [--user <login>]",
		Short: "Check whether one account follows another",
		Long: `Check whether --follower follows --user and print true or false.

--user defaults to the authenticated account, which requires a token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			target := user
			if target == "" {
				viewer, err := a.client.Viewer(ctx)
				if err != nil {
					return err
				}
				target = viewer.Login
			}

			follows, err := a.client.IsFollowing(ctx, follower, target)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Debug().
				Str("follower", follower).
				Str("user", target).
				Bool("follows", follows).
				Msg("checked follow")

			_, err = fmt.Fprintln(a.stdout, strconv.FormatBool(follows))
			return err
		},
	}

	cmd.Flags().StringVar(&follower, "follower", "", "Account that may be following")
	cmd.Flags().StringVar(&user, "user", "", "Account that may be followed (default: you)")
	_ = cmd.MarkFlagRequired("follower")
	return cmd
}
