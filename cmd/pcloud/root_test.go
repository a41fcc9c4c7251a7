package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/pcloud-go/internal/config"
)

// Global flag reset pattern: newRootCmd() binds flags via StringVar/BoolVar,
// which reset the global flag variables to their zero values. Tests must
// either set globals AFTER newRootCmd() returns, or use cmd.SetArgs() +
// cmd.Execute() to let Cobra parse flags.

func saveLoggingGlobals(t *testing.T) {
	t.Helper()

	oldCfg := resolvedCfg
	oldVerbose := flagVerbose
	oldQuiet := flagQuiet

	t.Cleanup(func() {
		resolvedCfg = oldCfg
		flagVerbose = oldVerbose
		flagQuiet = oldQuiet
	})
}

func TestBuildLogger_Default(t *testing.T) {
	saveLoggingGlobals(t)

	resolvedCfg = nil
	flagVerbose = false
	flagQuiet = false

	logger := buildLogger()

	// Default level is Info: Info enabled, Debug not.
	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_ConfigWarn(t *testing.T) {
	saveLoggingGlobals(t)

	resolvedCfg = &config.Config{
		Logging: config.LoggingConfig{LogLevel: "warn"},
	}
	flagVerbose = false
	flagQuiet = false

	logger := buildLogger()

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
}

func TestBuildLogger_VerboseOverridesConfig(t *testing.T) {
	saveLoggingGlobals(t)

	// Config says error, but --verbose wins.
	resolvedCfg = &config.Config{
		Logging: config.LoggingConfig{LogLevel: "error"},
	}
	flagVerbose = true
	flagQuiet = false

	logger := buildLogger()

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_QuietOverridesConfig(t *testing.T) {
	saveLoggingGlobals(t)

	resolvedCfg = &config.Config{
		Logging: config.LoggingConfig{LogLevel: "debug"},
	}
	flagVerbose = false
	flagQuiet = true

	logger := buildLogger()

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelError))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
}

func TestNewLogHandler_ExplicitFormats(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)

	defer f.Close()

	h := newLogHandler(f, "text", slog.LevelInfo)
	assert.IsType(t, &slog.TextHandler{}, h)

	h = newLogHandler(f, "json", slog.LevelInfo)
	assert.IsType(t, &slog.JSONHandler{}, h)
}

func TestNewLogHandler_AutoWithoutTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)

	defer f.Close()

	// A regular file is not a terminal, so auto picks JSON.
	h := newLogHandler(f, "auto", slog.LevelInfo)
	assert.IsType(t, &slog.JSONHandler{}, h)
}

func TestDropTimeAttr(t *testing.T) {
	timeAttr := slog.Time(slog.TimeKey, time.Now())

	got := dropTimeAttr(nil, timeAttr)
	assert.True(t, got.Equal(slog.Attr{}), "top-level time attr should be dropped")

	got = dropTimeAttr([]string{"group"}, timeAttr)
	assert.True(t, got.Equal(timeAttr), "grouped time attr should survive")

	msg := slog.String(slog.MessageKey, "hello")
	got = dropTimeAttr(nil, msg)
	assert.True(t, got.Equal(msg), "non-time attrs should survive")
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	oldCfg := resolvedCfg
	t.Cleanup(func() { resolvedCfg = oldCfg })

	resolvedCfg = nil

	client := newHTTPClient()
	assert.Equal(t, time.Duration(0), client.Timeout)
	assert.NotNil(t, client.Transport)
}

func TestNewHTTPClient_ConfiguredTimeouts(t *testing.T) {
	oldCfg := resolvedCfg
	t.Cleanup(func() { resolvedCfg = oldCfg })

	resolvedCfg = &config.Config{
		Network: config.NetworkConfig{
			ConnectTimeout: "45s",
			DataTimeout:    "2m",
		},
	}

	client := newHTTPClient()
	assert.Equal(t, 2*time.Minute, client.Timeout)
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	expected := []string{
		"login", "logout", "whoami",
		"ls", "stat", "mkdir", "rm", "cp", "mv",
		"get", "put", "link", "checksum", "revisions", "zip",
		"events", "watch", "config",
	}

	for _, name := range expected {
		found := false

		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true

				break
			}
		}

		assert.True(t, found, "expected subcommand %q not found", name)
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	expectedFlags := []string{"config", "region", "credentials", "log-level", "json", "verbose", "quiet"}
	for _, name := range expectedFlags {
		flag := cmd.PersistentFlags().Lookup(name)
		assert.NotNil(t, flag, "expected persistent flag %q not found", name)
	}
}

func TestNewRootCmd_VerboseQuietExclusive(t *testing.T) {
	saveLoggingGlobals(t)

	oldPath := flagConfigPath
	t.Cleanup(func() { flagConfigPath = oldPath })

	// Cobra enforces the flag group during Execute(). Uses "config init"
	// because it skips config loading, so a missing config file on CI
	// cannot mask the flag group error. The temp --config keeps a
	// regression from writing a real starter file.
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "config.toml"),
		"--verbose", "--quiet", "config", "init",
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestNewRootCmd_ConfigInitSkipsLoading(t *testing.T) {
	cmd := newRootCmd()

	sub, _, err := cmd.Find([]string{"config", "init"})
	require.NoError(t, err)

	oldCfg := resolvedCfg
	t.Cleanup(func() { resolvedCfg = oldCfg })

	resolvedCfg = nil

	require.NoError(t, cmd.PersistentPreRunE(sub, nil))
	assert.Nil(t, resolvedCfg, "config init must not trigger config loading")
}

func TestLoadConfig_ResolvesDefaults(t *testing.T) {
	oldCfg := resolvedCfg
	oldPath := flagConfigPath
	oldRegion := flagRegion
	oldCreds := flagCredentials
	oldLevel := flagLogLevel

	t.Cleanup(func() {
		resolvedCfg = oldCfg
		flagConfigPath = oldPath
		flagRegion = oldRegion
		flagCredentials = oldCreds
		flagLogLevel = oldLevel
	})

	for _, key := range []string{config.EnvConfig, config.EnvRegion, config.EnvCredentials, config.EnvLogLevel} {
		t.Setenv(key, "")
	}

	// A missing config file is not an error; defaults apply.
	flagConfigPath = filepath.Join(t.TempDir(), "missing.toml")
	flagRegion = "eu"
	flagCredentials = ""
	flagLogLevel = ""

	require.NoError(t, loadConfig(nil))
	require.NotNil(t, resolvedCfg)

	assert.Equal(t, "eu", resolvedCfg.Region)
	assert.NotEmpty(t, resolvedCfg.CredentialsFile)
	assert.NotEmpty(t, resolvedCfg.StateFile)
}
