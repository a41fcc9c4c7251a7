package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	pcloud "github.com/tonimelisma/pcloud-go"
	"github.com/tonimelisma/pcloud-go/internal/tokenfile"
)

// Login flow flags.
var (
	flagUsername     string
	flagOAuth        bool
	flagClientID     string
	flagClientSecret string
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with pCloud and save credentials",
		Long: `Authenticate with pCloud and save credentials for later commands.

The default flow asks for username and password and stores the issued
auth token. With --oauth, a browser-based OAuth2 authorization code flow
runs instead; register an application at docs.pcloud.com to obtain a
client id and secret (also read from PCLOUD_CLIENT_ID and
PCLOUD_CLIENT_SECRET).

Accounts registered in Europe must log in with --region eu, or set
region = "eu" in the config file.`,
		RunE: runLogin,
	}

	cmd.Flags().StringVarP(&flagUsername, "username", "u", "", "account email")
	cmd.Flags().BoolVar(&flagOAuth, "oauth", false, "use the browser OAuth2 flow")
	cmd.Flags().StringVar(&flagClientID, "client-id", "", "OAuth2 application client id")
	cmd.Flags().StringVar(&flagClientSecret, "client-secret", "", "OAuth2 application client secret")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the saved session and delete credentials",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated account",
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := cmd.Context()
	host := resolvedCfg.Host()

	if flagOAuth {
		return loginOAuth(ctx, host, logger)
	}

	return loginPassword(ctx, host, logger)
}

// loginPassword runs the username/password flow and stores the issued
// auth token.
func loginPassword(ctx context.Context, host string, logger *slog.Logger) error {
	username, password, err := promptCredentials()
	if err != nil {
		return err
	}

	client, err := pcloud.Login(ctx, host, username, password, newHTTPClient(), logger)
	if err != nil {
		return err
	}

	tf := &tokenfile.File{
		Host: client.Host(),
		Auth: client.AuthToken(),
		Meta: map[string]string{"username": username},
	}

	if err := tokenfile.Save(resolvedCfg.CredentialsFile, tf); err != nil {
		return err
	}

	statusf("Logged in as %s.\n", username)

	return nil
}

// loginOAuth runs the browser OAuth2 flow and stores the bearer token.
func loginOAuth(ctx context.Context, host string, logger *slog.Logger) error {
	app := pcloud.OAuthApp{
		ClientID:     firstNonEmpty(flagClientID, os.Getenv("PCLOUD_CLIENT_ID")),
		ClientSecret: firstNonEmpty(flagClientSecret, os.Getenv("PCLOUD_CLIENT_SECRET")),
	}

	if app.ClientID == "" || app.ClientSecret == "" {
		return fmt.Errorf("--oauth needs --client-id and --client-secret (or PCLOUD_CLIENT_ID / PCLOUD_CLIENT_SECRET)")
	}

	token, err := pcloud.LoginWithBrowser(ctx, host, app, openBrowser, logger)
	if err != nil {
		return err
	}

	tf := &tokenfile.File{Host: host, Token: token}
	if err := tokenfile.Save(resolvedCfg.CredentialsFile, tf); err != nil {
		return err
	}

	statusf("Login successful.\n")

	return nil
}

// promptCredentials collects username and password. The username comes
// from --username when given. Passwords are read without echo on
// terminals; piped stdin falls back to line input so scripts work.
func promptCredentials() (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	username := flagUsername
	if username == "" {
		fmt.Fprint(os.Stderr, "Username: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("reading username: %w", err)
		}

		username = strings.TrimSpace(line)
	}

	if username == "" {
		return "", "", fmt.Errorf("username is required")
	}

	fmt.Fprint(os.Stderr, "Password: ")

	if isatty.IsTerminal(os.Stdin.Fd()) {
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)

		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}

		return username, string(passwordBytes), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}

	return username, strings.TrimRight(line, "\r\n"), nil
}

// openBrowser launches the platform browser for the given URL.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	default:
		return fmt.Errorf("no browser launcher for %s", runtime.GOOS)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func runLogout(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := cmd.Context()

	tf, err := tokenfile.Load(resolvedCfg.CredentialsFile)
	if err != nil {
		return err
	}

	if tf == nil {
		statusf("Not logged in.\n")
		return nil
	}

	// Session tokens are revoked server-side. OAuth bearer tokens have no
	// revocation endpoint; deleting the file is all there is to do.
	if tf.Auth != "" {
		client := pcloud.NewWithAuth(ctx, tf.Host, tf.Auth, newHTTPClient(), logger)
		if err := client.Close(ctx); err != nil {
			logger.Warn("session revocation failed, deleting credentials anyway", "error", err)
		}
	}

	if err := tokenfile.Delete(resolvedCfg.CredentialsFile); err != nil {
		return err
	}

	statusf("Logged out.\n")

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	Email         string `json:"email"`
	UserID        uint64 `json:"user_id"`
	EmailVerified bool   `json:"email_verified"`
	Premium       bool   `json:"premium"`
	Quota         int64  `json:"quota"`
	UsedQuota     int64  `json:"used_quota"`
	Registered    string `json:"registered"`
	Host          string `json:"host"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := cmd.Context()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	info, err := client.UserInfo(ctx)
	if err != nil {
		return fmt.Errorf("fetching account info: %w", err)
	}

	if flagJSON {
		return printWhoamiJSON(client.Host(), info)
	}

	printWhoamiText(client.Host(), info)

	return nil
}

func printWhoamiJSON(host string, info *pcloud.UserInfo) error {
	out := whoamiOutput{
		Email:         info.Email,
		UserID:        info.UserID,
		EmailVerified: info.EmailVerified,
		Premium:       info.Premium,
		Quota:         info.Quota,
		UsedQuota:     info.UsedQuota,
		Registered:    info.Registered.Format("2006-01-02"),
		Host:          host,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}

func printWhoamiText(host string, info *pcloud.UserInfo) {
	fmt.Printf("Email:      %s\n", info.Email)
	fmt.Printf("User ID:    %d\n", info.UserID)
	fmt.Printf("Host:       %s\n", host)
	fmt.Printf("Registered: %s\n", info.Registered.Format("2006-01-02"))
	fmt.Printf("Premium:    %t\n", info.Premium)
	fmt.Printf("Quota:      %s / %s\n", formatSize(info.UsedQuota), formatSize(info.Quota))
}
