package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig      = "PCLOUD_GO_CONFIG"
	EnvRegion      = "PCLOUD_GO_REGION"
	EnvCredentials = "PCLOUD_GO_CREDENTIALS"
	EnvLogLevel    = "PCLOUD_GO_LOG_LEVEL"
)

// EnvOverrides holds values derived from environment variables.
// These are resolved by ReadEnvOverrides and made available to callers.
type EnvOverrides struct {
	ConfigPath      string // PCLOUD_GO_CONFIG: override config file path
	Region          string // PCLOUD_GO_REGION: api region, "us" or "eu"
	CredentialsFile string // PCLOUD_GO_CREDENTIALS: credential file path
	LogLevel        string // PCLOUD_GO_LOG_LEVEL: log verbosity
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; callers apply the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:      os.Getenv(EnvConfig),
		Region:          os.Getenv(EnvRegion),
		CredentialsFile: os.Getenv(EnvCredentials),
		LogLevel:        os.Getenv(EnvLogLevel),
	}
}
