package pcloud

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Download streams a file's contents: it requests a download link and
// opens it. The caller must close the reader.
func (c *Client) Download(ctx context.Context, f File) (io.ReadCloser, error) {
	link, err := c.FileLink(ctx, f)
	if err != nil {
		return nil, err
	}

	return c.OpenLink(ctx, link)
}

// OpenLink streams the contents behind a download link. Link URLs are
// pre-authorized, so no credential is attached. The caller must close
// the reader.
func (c *Client) OpenLink(ctx context.Context, link *DownloadLink) (io.ReadCloser, error) {
	u, err := link.URL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("pcloud: creating download request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pcloud: downloading: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, fmt.Errorf("%w %d for download", ErrUnexpectedStatus, resp.StatusCode)
	}

	return resp.Body, nil
}
