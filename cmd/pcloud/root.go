package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/pcloud-go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath  string
	flagRegion      string
	flagCredentials string
	flagLogLevel    string
	flagJSON        bool
	flagVerbose     bool
	flagQuiet       bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
// It is available to all subcommands after the root pre-run phase completes.
var resolvedCfg *config.Config

// skipConfigCommands lists commands that must not fail on a broken or
// missing config file. "config init" writes the starter file, so requiring
// a loadable config first would defeat it. Uses CommandPath() for explicit
// matching, safe against future subcommand collisions.
var skipConfigCommands = map[string]bool{
	"pcloud config init": true,
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pcloud",
		Short:   "pCloud CLI client",
		Long:    "A command-line client for pCloud: file transfers, sharing links, and the account event feed.",
		Version: version,
		// Silence Cobra's default error/usage printing, main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfigCommands[cmd.CommandPath()] {
				return nil
			}

			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagRegion, "region", "", `API region, "us" or "eu"`)
	cmd.PersistentFlags().StringVar(&flagCredentials, "credentials", "", "credential file path")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log verbosity (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newStatCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newCpCmd())
	cmd.AddCommand(newMvCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newLinkCmd())
	cmd.AddCommand(newChecksumCmd())
	cmd.AddCommand(newRevisionsCmd())
	cmd.AddCommand(newZipCmd())
	cmd.AddCommand(newEventsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the four-layer
// override chain and stores the result in resolvedCfg for use by
// subcommands.
func loadConfig(_ *cobra.Command) error {
	cli := config.CLIOverrides{
		ConfigPath:      flagConfigPath,
		Region:          flagRegion,
		CredentialsFile: flagCredentials,
		LogLevel:        flagLogLevel,
	}

	cfg, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = cfg

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo
	format := "auto"

	if resolvedCfg != nil {
		switch resolvedCfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		if resolvedCfg.Logging.LogFormat != "" {
			format = resolvedCfg.Logging.LogFormat
		}
	}

	// CLI flags override config (highest priority).
	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(newLogHandler(os.Stderr, format, level))
}

// newLogHandler picks the slog handler for the configured format. "auto"
// means human-oriented text on interactive terminals and JSON when stderr
// is redirected, so captured logs stay machine-readable.
func newLogHandler(w *os.File, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "text":
		return slog.NewTextHandler(w, opts)
	case "json":
		return slog.NewJSONHandler(w, opts)
	}

	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		// Terminals get text without timestamps; the shell session
		// provides the temporal context.
		opts.ReplaceAttr = dropTimeAttr
		return slog.NewTextHandler(w, opts)
	}

	return slog.NewJSONHandler(w, opts)
}

// dropTimeAttr removes the top-level time attribute from log records.
func dropTimeAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}

	return a
}

// newHTTPClient builds the HTTP client for API calls and content
// transfers, honoring the configured timeouts. The data timeout bounds
// whole requests including body transfer; 0 leaves it unbounded for very
// large files.
func newHTTPClient() *http.Client {
	connect := 30 * time.Second
	data := time.Duration(0)

	if resolvedCfg != nil {
		if d, err := time.ParseDuration(resolvedCfg.Network.ConnectTimeout); err == nil {
			connect = d
		}

		if d, err := time.ParseDuration(resolvedCfg.Network.DataTimeout); err == nil {
			data = d
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connect}).DialContext

	return &http.Client{Transport: transport, Timeout: data}
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
