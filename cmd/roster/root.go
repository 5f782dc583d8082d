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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-roster/internal/config"
	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/github"
	"github.com/sirseerhq/sirseer-roster/internal/logging"
	"github.com/sirseerhq/sirseer-roster/internal/metadata"
	"github.com/sirseerhq/sirseer-roster/internal/output"
	"github.com/sirseerhq/sirseer-roster/internal/ratelimit"
	"github.com/sirseerhq/sirseer-roster/pkg/version"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	token      string
	configPath string
	output     string
	format     string
	header     bool
	verbose    int
	quiet      bool
	summary    bool
}

// app carries the process-level dependencies of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	clock  ratelimit.Clock

	// newClient builds the API session. Tests replace it with a mock.
	newClient func(github.Options) (github.Client, error)

	flags globalFlags

	// Set by setup before a command runs.
	cfg    *config.Config
	client github.Client
	quota  *ratelimit.Tracker
	run    *metadata.Tracker
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		clock:  ratelimit.SystemClock{},
		newClient: func(opts github.Options) (github.Client, error) {
			return github.NewGitHubClient(opts)
		},
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sirseer-roster",
		Short: "Export GitHub relationships, report contributors and mass-block accounts",
		Long: `SirSeer Roster talks to the GitHub API on behalf of one account. It exports
followers, following and blocked accounts, reports every author of a
repository's pull requests, and blocks lists of accounts idempotently.

A token is read from --token or the GITHUB_TOKEN environment variable.
Without a token only the unauthenticated parts of the contributor report
are available.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.token, "token", "", "GitHub personal access token (overrides GITHUB_TOKEN env var)")
	pf.StringVar(&a.flags.configPath, "config", "", "Path to configuration file")
	pf.StringVarP(&a.flags.output, "output", "o", "", "Output file path (default: stdout)")
	pf.StringVar(&a.flags.format, "format", output.FormatCSV, "Output format: csv or ndjson")
	pf.BoolVar(&a.flags.header, "header", false, "Write a CSV header row")
	pf.CountVarP(&a.flags.verbose, "verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "Only log warnings and errors")
	pf.BoolVar(&a.flags.summary, "summary", false, "Print a JSON run summary to stderr on exit")

	root.AddCommand(
		a.listCommand("list-followers", github.Followers, "List the accounts following you"),
		a.listCommand("list-following", github.Following, "List the accounts you follow"),
		a.listCommand("list-blocks", github.Blocked, "List the accounts you have blocked"),
		a.contributorsCommand(),
		a.blockCommand(),
		a.checkFollowCommand(),
	)
	return root
}

// execute runs the CLI with args and returns the process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if a.flags.summary && a.run != nil {
		summary := a.run.Generate(version.Version, a.quota, err)
		if werr := metadata.WriteSummary(summary, a.stderr); werr != nil && err == nil {
			err = fmt.Errorf("failed to write summary: %w", werr)
		}
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return mapErrorToExitCode(err)
}

// setup loads configuration, installs the logger and opens the API session.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.flags.format != output.FormatCSV && a.flags.format != output.FormatNDJSON {
		return fmt.Errorf("invalid --format %q (want %s or %s)", a.flags.format, output.FormatCSV, output.FormatNDJSON)
	}

	var repo string
	if f := cmd.Flags().Lookup("repo-path"); f != nil {
		repo = f.Value.String()
	}
	cfg, err := config.LoadConfigForRepo(a.flags.configPath, repo)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.Init(logging.Options{
		Level:  logging.LevelFromVerbosity(cfg.Log.Level, a.flags.verbose, a.flags.quiet),
		Format: cfg.Log.Format,
		Output: a.stderr,
	})
	if err != nil {
		return err
	}

	a.run = metadata.New(cmd.Name(), a.clock)
	logger = logger.With().Str("run_id", a.run.RunID()).Str("command", a.run.Command()).Logger()
	cmd.SetContext(logging.WithContext(cmd.Context(), &logger))

	token := cfg.Token(a.flags.token)
	a.quota = ratelimit.NewTracker(a.clock, cfg.RateLimit.AutoWait)
	a.client, err = a.newClient(github.Options{
		Token:           token,
		APIEndpoint:     cfg.GitHub.APIEndpoint,
		GraphQLEndpoint: cfg.GitHub.GraphQLEndpoint,
		PageSize:        cfg.Fetch.PageSize,
		NetworkRetries:  cfg.Fetch.NetworkRetries,
		AutoWait:        cfg.RateLimit.AutoWait,
		Tracker:         a.quota,
	})
	if err != nil {
		return err
	}

	logger.Debug().
		Bool("authenticated", a.client.Authenticated()).
		Str("api", cfg.GitHub.APIEndpoint).
		Int("page_size", cfg.Fetch.PageSize).
		Msg("session ready")
	return nil
}

// openOutput opens the record sink selected by --output and --format.
func (a *app) openOutput(columns []output.Column) (output.RowWriter, error) {
	if a.flags.output == "" || a.flags.output == "-" {
		return output.New(a.flags.format, a.stdout, columns, a.flags.header)
	}
	return output.Open(a.flags.output, a.flags.format, columns, a.flags.header)
}

// errIncompleteBlockRun marks a block run that did not block every target.
var errIncompleteBlockRun = errors.New("block run incomplete")

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, errIncompleteBlockRun) {
		return 4
	}

	if errors.Is(err, rostererrors.ErrAuthRequired) ||
		errors.Is(err, rostererrors.ErrInvalidToken) ||
		errors.Is(err, rostererrors.ErrNotFound) ||
		errors.Is(err, rostererrors.ErrRateLimit) {
		return 2
	}

	if errors.Is(err, rostererrors.ErrNetworkFailure) {
		return 3
	}

	return 1
}
