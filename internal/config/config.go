// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for pcloud-go. It supports a
// four-layer override chain (defaults -> config file -> environment ->
// CLI flags).
package config

import (
	"github.com/tonimelisma/pcloud-go"
)

// Region identifiers accepted in the config file and PCLOUD_GO_REGION.
const (
	RegionUS = "us"
	RegionEU = "eu"
)

// Config is the top-level configuration structure parsed from a TOML
// file. All fields have working defaults; a missing config file is not
// an error.
type Config struct {
	// Region selects the API host of the account's region: "us" or
	// "eu". Accounts live in exactly one region and their credentials
	// are rejected by the other one.
	Region string `toml:"region"`

	// APIHost overrides the region's well-known host with an explicit
	// base URL. Mostly useful against test servers.
	APIHost string `toml:"api_host"`

	// CredentialsFile is where login stores the session token. Empty
	// means <data dir>/credentials.json.
	CredentialsFile string `toml:"credentials_file"`

	// StateFile is the sqlite database holding event-feed cursors.
	// Empty means <data dir>/state.db.
	StateFile string `toml:"state_file"`

	Logging   LoggingConfig   `toml:"logging"`
	Network   NetworkConfig   `toml:"network"`
	Transfers TransfersConfig `toml:"transfers"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls HTTP client behavior. DataTimeout bounds whole
// transfers and must leave room for large uploads; the events command
// overrides it while long-polling.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	UserAgent      string `toml:"user_agent"`
}

// TransfersConfig controls how many files move in parallel during
// multi-file get and put.
type TransfersConfig struct {
	ParallelDownloads int `toml:"parallel_downloads"`
	ParallelUploads   int `toml:"parallel_uploads"`
}

// CLIOverrides holds values from CLI flags that override config file
// and environment settings. Empty strings mean "not specified".
type CLIOverrides struct {
	ConfigPath      string // --config flag
	Region          string // --region flag
	CredentialsFile string // --credentials flag
	LogLevel        string // --log-level flag
}

// Host returns the API base URL: the explicit api_host when set,
// otherwise the region's well-known host.
func (c *Config) Host() string {
	if c.APIHost != "" {
		return c.APIHost
	}

	if c.Region == RegionEU {
		return pcloud.EUHost
	}

	return pcloud.DefaultHost
}
