package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Region(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Region = "asia"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region: must be one of us, eu")
	assert.Contains(t, err.Error(), `"asia"`)
}

func TestValidate_EmptyRegionAllowed(t *testing.T) {
	// An empty region falls back to the default host, so it is not an error.
	cfg := DefaultConfig()
	cfg.Region = ""

	assert.NoError(t, Validate(cfg))
}

func TestValidate_APIHostScheme(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIHost = "api.pcloud.com"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_host: must be a base URL")

	cfg.APIHost = "https://api.pcloud.com"
	assert.NoError(t, Validate(cfg))

	cfg.APIHost = "http://localhost:8080"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.LogLevel = "loud"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level: must be one of debug, info, warn, error")
}

func TestValidate_LogFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.LogFormat = "xml"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format: must be one of auto, text, json")
}

func TestValidate_ConnectTimeoutFloor(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Network.ConnectTimeout = "500ms"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect_timeout: minimum is 1s")

	cfg.Network.ConnectTimeout = "1s"
	assert.NoError(t, Validate(cfg))

	// Zero disables the timeout entirely.
	cfg.Network.ConnectTimeout = "0"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_DataTimeoutFloor(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Network.DataTimeout = "2s"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data_timeout: minimum is 5s")

	cfg.Network.DataTimeout = "5s"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_UnparseableDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.ConnectTimeout = "soon"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect_timeout:")
}

func TestValidate_TransferWorkerRange(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Transfers.ParallelDownloads = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel_downloads: must be 1-32")

	cfg.Transfers.ParallelDownloads = 33
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel_downloads: must be 1-32")

	cfg.Transfers.ParallelDownloads = 32
	assert.NoError(t, Validate(cfg))

	cfg.Transfers.ParallelUploads = 0
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel_uploads: must be 1-32")
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Region = "asia"
	cfg.Logging.LogLevel = "loud"
	cfg.Transfers.ParallelUploads = 99

	err := Validate(cfg)
	require.Error(t, err)

	// One pass reports every problem, not just the first.
	assert.Contains(t, err.Error(), "region:")
	assert.Contains(t, err.Error(), "log_level:")
	assert.Contains(t, err.Error(), "parallel_uploads:")
}
