package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// configFilePermissions is the standard permission mode for config files.
// Owner read/write, group and others read-only.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// configTemplate is the default config file content written by
// "config init". All settings are present as commented-out defaults so
// users can discover every option without reading docs. This template is
// written once and never regenerated, so user modifications survive.
const configTemplate = `# pcloud-go configuration

# API region of your account: "us" or "eu".
# Accounts registered in Europe must use "eu".
# region = "us"

# Explicit API base URL, overriding the region. Rarely needed.
# api_host = ""

# Where login stores the credential file (default: platform data dir).
# credentials_file = ""

# Where the events command keeps its resume cursor (default: platform data dir).
# state_file = ""

[logging]
# Verbosity: debug, info, warn, error
# log_level = "info"

# Output format: auto (text on terminals, json otherwise), text, json
# log_format = "auto"

[network]
# Timeout for establishing connections.
# connect_timeout = "30s"

# Timeout for whole requests, uploads and downloads included. 0 disables.
# data_timeout = "10m"

# Override the User-Agent header.
# user_agent = ""

[transfers]
# How many files move in parallel during multi-file get and put.
# parallel_downloads = 4
# parallel_uploads = 4
`

// WriteTemplate writes the starter config file at path, creating parent
// directories as needed. It refuses to overwrite an existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(configTemplate), configFilePermissions); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
