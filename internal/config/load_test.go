package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
region = "eu"
credentials_file = "/tmp/creds.json"

[logging]
log_level = "debug"
log_format = "json"

[network]
connect_timeout = "10s"
data_timeout = "2m"

[transfers]
parallel_downloads = 8
parallel_uploads = 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "eu", cfg.Region)
	assert.Equal(t, "https://eapi.pcloud.com", cfg.Host())
	assert.Equal(t, "/tmp/creds.json", cfg.CredentialsFile)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "json", cfg.Logging.LogFormat)
	assert.Equal(t, "10s", cfg.Network.ConnectTimeout)
	assert.Equal(t, 8, cfg.Transfers.ParallelDownloads)
	assert.Equal(t, 2, cfg.Transfers.ParallelUploads)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[logging]
log_level = "warn"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.LogLevel)
	assert.Equal(t, defaultLogFormat, cfg.Logging.LogFormat)
	assert.Equal(t, defaultRegion, cfg.Region)
	assert.Equal(t, defaultParallelDownloads, cfg.Transfers.ParallelDownloads)
}

func TestLoad_UnknownKeyFails(t *testing.T) {
	path := writeConfig(t, `
regoin = "eu"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config key "regoin"`)
	assert.Contains(t, err.Error(), `did you mean "region"`)
}

func TestLoad_UnknownNestedKeyFails(t *testing.T) {
	path := writeConfig(t, `
[logging]
log_levl = "debug"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_levl")
	assert.Contains(t, err.Error(), `did you mean "log_level"`)
}

func TestLoad_InvalidValueFails(t *testing.T) {
	path := writeConfig(t, `
region = "asia"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeConfig(t, `region = `)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, defaultRegion, cfg.Region)
	assert.Equal(t, defaultLogLevel, cfg.Logging.LogLevel)
}

func TestResolve_PrecedenceChain(t *testing.T) {
	path := writeConfig(t, `
region = "eu"

[logging]
log_level = "warn"
`)

	// Env overrides file.
	cfg, err := Resolve(
		EnvOverrides{ConfigPath: path, Region: "us"},
		CLIOverrides{},
	)
	require.NoError(t, err)
	assert.Equal(t, "us", cfg.Region)
	assert.Equal(t, "warn", cfg.Logging.LogLevel)

	// CLI overrides env.
	cfg, err = Resolve(
		EnvOverrides{ConfigPath: path, Region: "us", LogLevel: "error"},
		CLIOverrides{Region: "eu", LogLevel: "debug"},
	)
	require.NoError(t, err)
	assert.Equal(t, "eu", cfg.Region)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
}

func TestResolve_CLIConfigPathWinsOverEnv(t *testing.T) {
	envPath := writeConfig(t, `region = "us"`)
	cliPath := writeConfig(t, `region = "eu"`)

	cfg, err := Resolve(
		EnvOverrides{ConfigPath: envPath},
		CLIOverrides{ConfigPath: cliPath},
	)
	require.NoError(t, err)
	assert.Equal(t, "eu", cfg.Region)
}

func TestResolve_FillsPathDefaults(t *testing.T) {
	path := writeConfig(t, ``)

	cfg, err := Resolve(EnvOverrides{ConfigPath: path}, CLIOverrides{})
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.CredentialsFile)
	assert.Equal(t, "credentials.json", filepath.Base(cfg.CredentialsFile))
	assert.NotEmpty(t, cfg.StateFile)
	assert.Equal(t, "state.db", filepath.Base(cfg.StateFile))
}

func TestResolve_ExplicitPathsPreserved(t *testing.T) {
	path := writeConfig(t, `
credentials_file = "/custom/creds.json"
state_file = "/custom/state.db"
`)

	cfg, err := Resolve(EnvOverrides{ConfigPath: path}, CLIOverrides{})
	require.NoError(t, err)

	assert.Equal(t, "/custom/creds.json", cfg.CredentialsFile)
	assert.Equal(t, "/custom/state.db", cfg.StateFile)
}

func TestResolve_InvalidOverrideFails(t *testing.T) {
	path := writeConfig(t, ``)

	_, err := Resolve(
		EnvOverrides{ConfigPath: path},
		CLIOverrides{LogLevel: "loud"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}
