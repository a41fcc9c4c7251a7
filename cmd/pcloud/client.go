package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	pcloud "github.com/tonimelisma/pcloud-go"
	"github.com/tonimelisma/pcloud-go/internal/tokenfile"
)

// errNotLoggedIn is returned by commands that need saved credentials.
var errNotLoggedIn = errors.New("not logged in: run 'pcloud login' first")

// apiClient builds a client from the saved credential file. The file's
// host wins over the configured region so credentials never cross
// regions; a fresh login is the only way to switch.
func apiClient(ctx context.Context, logger *slog.Logger) (*pcloud.Client, error) {
	return apiClientWith(ctx, logger, newHTTPClient())
}

// apiClientWith is apiClient with a caller-supplied HTTP client, for
// commands that need non-default timeouts (long-polling drops the
// whole-transfer deadline).
func apiClientWith(ctx context.Context, logger *slog.Logger, httpClient *http.Client) (*pcloud.Client, error) {
	tf, err := tokenfile.Load(resolvedCfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	if tf == nil {
		return nil, errNotLoggedIn
	}

	if tf.Token != nil && tf.Token.AccessToken != "" {
		return pcloud.NewWithToken(ctx, tf.Host, tf.Token.AccessToken, httpClient, logger), nil
	}

	return pcloud.NewWithAuth(ctx, tf.Host, tf.Auth, httpClient, logger), nil
}

// absRemote makes a remote path absolute. The API only accepts
// slash-rooted paths; the CLI is forgiving about the leading slash.
func absRemote(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}

	return "/" + path
}

// splitRemote splits an absolute remote path into parent folder path and
// leaf name. "/docs/q3/report.pdf" gives ("/docs/q3", "report.pdf").
func splitRemote(path string) (string, string) {
	p := absRemote(strings.TrimSuffix(path, "/"))
	idx := strings.LastIndex(p, "/")

	if idx == 0 {
		return "/", p[1:]
	}

	return p[:idx], p[idx+1:]
}

// fileArg turns a command-line argument into a file descriptor.
// "fileid:123" addresses by numeric id; anything else is a remote path.
func fileArg(arg string) (pcloud.File, error) {
	if id, ok := strings.CutPrefix(arg, "fileid:"); ok {
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return pcloud.File{}, fmt.Errorf("invalid file id %q", id)
		}

		return pcloud.FileID(n), nil
	}

	return pcloud.FilePath(absRemote(arg)), nil
}

// folderArg turns a command-line argument into a folder descriptor.
// "folderid:123" addresses by numeric id; anything else is a remote path.
func folderArg(arg string) (pcloud.Folder, error) {
	if id, ok := strings.CutPrefix(arg, "folderid:"); ok {
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return pcloud.Folder{}, fmt.Errorf("invalid folder id %q", id)
		}

		return pcloud.FolderID(n), nil
	}

	return pcloud.FolderPath(absRemote(arg)), nil
}
