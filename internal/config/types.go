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

// Package config types define the configuration structures used throughout
// sirseer-roster. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

// Config represents the complete configuration for sirseer-roster.
type Config struct {
	GitHub       GitHubConfig          `yaml:"github"`
	Fetch        FetchConfig           `yaml:"fetch"`
	Repositories map[string]RepoConfig `yaml:"repositories" validate:"dive"`
	RateLimit    RateLimitConfig       `yaml:"rate_limit"`
	Log          LogConfig             `yaml:"log"`
}

// GitHubConfig contains API endpoints and the name of the environment
// variable holding the token. Custom endpoints allow GitHub Enterprise.
type GitHubConfig struct {
	APIEndpoint     string `yaml:"api_endpoint" validate:"required,url"`
	GraphQLEndpoint string `yaml:"graphql_endpoint" validate:"required,url"`
	TokenEnv        string `yaml:"token_env" validate:"required"`
}

// FetchConfig controls paging, account lookups and read parallelism.
type FetchConfig struct {
	PageSize       int `yaml:"page_size" validate:"min=1,max=100"`
	BatchSize      int `yaml:"batch_size" validate:"min=1,max=100"`
	Workers        int `yaml:"workers" validate:"min=1,max=8"`
	NetworkRetries int `yaml:"network_retries" validate:"min=0,max=10"`
}

// RepoConfig contains repository-specific overrides for the contributor
// report, such as a smaller page size for repositories with huge pull
// request lists.
type RepoConfig struct {
	PageSize int `yaml:"page_size" validate:"min=0,max=100"`
}

// RateLimitConfig controls whether the tool waits for a quota reset or
// fails as soon as the quota is exhausted.
type RateLimitConfig struct {
	AutoWait bool `yaml:"auto_wait"`
}

// LogConfig selects the log level and the stderr encoding.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// DefaultConfig returns a Config with defaults for public github.com.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIEndpoint:     "https://api.github.com/",
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Fetch: FetchConfig{
			PageSize:       100,
			BatchSize:      50,
			Workers:        2,
			NetworkRetries: 2,
		},
		Repositories: make(map[string]RepoConfig),
		RateLimit: RateLimitConfig{
			AutoWait: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
