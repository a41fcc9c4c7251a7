package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation range constants.
const (
	minTransferWorkers = 1
	maxTransferWorkers = 32
	minConnectTimeout  = 1 * time.Second
	minDataTimeout     = 5 * time.Second
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateHost(cfg)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)
	errs = append(errs, validateTransfers(&cfg.Transfers)...)

	return errors.Join(errs...)
}

var validRegions = map[string]bool{
	RegionUS: true,
	RegionEU: true,
}

func validateHost(cfg *Config) []error {
	var errs []error

	if cfg.Region != "" && !validRegions[cfg.Region] {
		errs = append(errs, fmt.Errorf("region: must be one of us, eu; got %q", cfg.Region))
	}

	if cfg.APIHost != "" && !strings.HasPrefix(cfg.APIHost, "https://") && !strings.HasPrefix(cfg.APIHost, "http://") {
		errs = append(errs, fmt.Errorf("api_host: must be a base URL, got %q", cfg.APIHost))
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)
	errs = append(errs, validateLogFormat(l.LogFormat)...)

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("log_format: must be one of auto, text, json; got %q", format)}
	}

	return nil
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDurationMin("data_timeout", n.DataTimeout, minDataTimeout)...)

	return errs
}

// validateDurationMin parses a duration string and enforces a floor.
// "0" is allowed and means disabled.
func validateDurationMin(key, value string, min time.Duration) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: %w", key, err)}
	}

	if d != 0 && d < min {
		return []error{fmt.Errorf("%s: minimum is %s (0 disables), got %s", key, min, d)}
	}

	return nil
}

func validateTransfers(t *TransfersConfig) []error {
	var errs []error

	if t.ParallelDownloads < minTransferWorkers || t.ParallelDownloads > maxTransferWorkers {
		errs = append(errs, fmt.Errorf("parallel_downloads: must be %d-%d, got %d",
			minTransferWorkers, maxTransferWorkers, t.ParallelDownloads))
	}

	if t.ParallelUploads < minTransferWorkers || t.ParallelUploads > maxTransferWorkers {
		errs = append(errs, fmt.Errorf("parallel_uploads: must be %d-%d, got %d",
			minTransferWorkers, maxTransferWorkers, t.ParallelUploads))
	}

	return errs
}
