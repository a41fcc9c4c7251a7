package pcloud

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// FileLink returns a short-lived download link for a file revision.
func (c *Client) FileLink(ctx context.Context, f File) (*DownloadLink, error) {
	if err := f.validate("getfilelink"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	var out DownloadLink
	if err := c.getJSON(ctx, "getfilelink", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// PublicLinkBuilder assembles one getfilepublink request.
type PublicLinkBuilder struct {
	c *Client
	q url.Values
}

// PublicLink creates a shareable link to a file, valid until revoked
// or expired.
func (c *Client) PublicLink(f File) (*PublicLinkBuilder, error) {
	if err := f.validate("getfilepublink"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	return &PublicLinkBuilder{c: c, q: q}, nil
}

// Expire sets the link's expiry time.
func (b *PublicLinkBuilder) Expire(t time.Time) *PublicLinkBuilder {
	b.q.Set("expire", t.Format(timeLayout))
	return b
}

// MaxDownloads caps how many times the link can be downloaded.
func (b *PublicLinkBuilder) MaxDownloads(n uint64) *PublicLinkBuilder {
	b.q.Set("maxdownloads", strconv.FormatUint(n, 10))
	return b
}

// MaxTraffic caps the link's total traffic in bytes.
func (b *PublicLinkBuilder) MaxTraffic(n uint64) *PublicLinkBuilder {
	b.q.Set("maxtraffic", strconv.FormatUint(n, 10))
	return b
}

// ShortLink also registers a short https://u.pcloud.link style URL.
func (b *PublicLinkBuilder) ShortLink() *PublicLinkBuilder {
	b.q.Set("shortlink", "1")
	return b
}

// Password protects the link with a password.
func (b *PublicLinkBuilder) Password(pw string) *PublicLinkBuilder {
	b.q.Set("linkpassword", pw)
	return b
}

// Do issues the round trip.
func (b *PublicLinkBuilder) Do(ctx context.Context) (*PublicLink, error) {
	var out PublicLink
	if err := b.c.getJSON(ctx, "getfilepublink", b.q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// PublicLinkDownload turns a public link code into a download link,
// without authentication.
func (c *Client) PublicLinkDownload(ctx context.Context, code string) (*DownloadLink, error) {
	q := url.Values{}
	q.Set("code", code)

	var out DownloadLink
	if err := c.getJSON(ctx, "getpublinkdownload", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
