package pcloud

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload_StreamsContent(t *testing.T) {
	content := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dl/abc/report.pdf", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("auth"), "download links carry no credential")

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "file contents here")
	}))
	defer content.Close()

	contentHost := strings.TrimPrefix(content.URL, "https://")

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getfilelink", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"result": 0, "path": "/dl/abc/report.pdf", "hosts": [%q]}`, contentHost)
	}))
	defer api.Close()

	// The content server's client trusts its certificate and still
	// speaks plain HTTP to the API server.
	client := &Client{host: api.URL, httpClient: content.Client(), logger: discardLogger()}

	rc, err := client.Download(context.Background(), FileID(100))
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "file contents here", string(body))
}

func TestDownload_LinkErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": 2009, "error": "File not found."}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)

	_, err := client.Download(context.Background(), FileID(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, ResultFileNotFound)
}

func TestOpenLink_NoHosts(t *testing.T) {
	client := newTestClient(t, unreachableServer(t))

	_, err := client.OpenLink(context.Background(), &DownloadLink{Path: "/dl/x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hosts")
}

func TestOpenLink_UnexpectedStatus(t *testing.T) {
	content := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer content.Close()

	client := &Client{
		host:       "https://unused.example.com",
		httpClient: content.Client(),
		logger:     discardLogger(),
	}

	link := &DownloadLink{
		Path:  "/dl/expired",
		Hosts: []string{strings.TrimPrefix(content.URL, "https://")},
	}

	_, err := client.OpenLink(context.Background(), link)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}
