package pcloud

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getfilelink", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("fileid"))

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{
			"result": 0,
			"path": "/dl/abc/report.pdf",
			"expires": "Thu, 21 Mar 2019 06:31:25 +0000",
			"hosts": ["edef1.pcloud.com", "edef2.pcloud.com"]
		}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)

	link, err := client.FileLink(context.Background(), FileID(100))
	require.NoError(t, err)

	u, err := link.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://edef1.pcloud.com/dl/abc/report.pdf", u)
	assert.False(t, link.Expires.IsZero())
}

func TestFileLink_EmptyDescriptorFailsFast(t *testing.T) {
	client := newTestClient(t, unreachableServer(t))

	_, err := client.FileLink(context.Background(), File{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ResultNoFileIDOrPathProvided)
}

func TestPublicLink_Options(t *testing.T) {
	expire := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getfilepublink", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("fileid"))
		assert.Equal(t, "Sat, 01 Jun 2024 12:00:00 +0000", q.Get("expire"))
		assert.Equal(t, "50", q.Get("maxdownloads"))
		assert.Equal(t, "1073741824", q.Get("maxtraffic"))
		assert.Equal(t, "1", q.Get("shortlink"))
		assert.Equal(t, "s3cret", q.Get("linkpassword"))

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{
			"result": 0,
			"linkid": 1234,
			"link": "https://my.pcloud.com/publink/show?code=XZCODE",
			"code": "XZCODE",
			"shortcode": "abc1",
			"shortlink": "https://u.pcloud.link/publink/show?code=abc1",
			"metadata": {"id": "f100", "name": "report.pdf", "fileid": 100, "isfolder": false}
		}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)

	builder, err := client.PublicLink(FileID(100))
	require.NoError(t, err)

	link, err := builder.
		Expire(expire).
		MaxDownloads(50).
		MaxTraffic(1 << 30).
		ShortLink().
		Password("s3cret").
		Do(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1234), link.LinkID)
	assert.Equal(t, "XZCODE", link.Code)
	assert.NotEmpty(t, link.ShortLink)
}

func TestPublicLink_EmptyDescriptorFailsFast(t *testing.T) {
	client := newTestClient(t, unreachableServer(t))

	_, err := client.PublicLink(File{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ResultNoFileIDOrPathProvided)
}

func TestPublicLinkDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getpublinkdownload", r.URL.Path)
		assert.Equal(t, "XZCODE", r.URL.Query().Get("code"))

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{
			"result": 0,
			"path": "/dl/pub/report.pdf",
			"expires": "Thu, 21 Mar 2019 06:31:25 +0000",
			"hosts": ["edef1.pcloud.com"]
		}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)

	link, err := client.PublicLinkDownload(context.Background(), "XZCODE")
	require.NoError(t, err)

	u, err := link.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://edef1.pcloud.com/dl/pub/report.pdf", u)
}
