package pcloud

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client aimed at a test server, skipping
// endpoint discovery.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	return &Client{
		host:       srv.URL,
		httpClient: srv.Client(),
		logger:     discardLogger(),
	}
}

// newSessionClient returns a test client holding an active session.
func newSessionClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()

	c := newTestClient(t, srv)
	s := newSession(token)
	c.session = s
	c.cred = sessionCredential{s}

	return c
}

// unreachableServer fails the test on any request.
func unreachableServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)

		switch r.URL.Path {
		case "/getapiserver":
			fmt.Fprint(w, `{"result": 0, "api": [], "binapi": []}`)
		case "/userinfo":
			assert.Equal(t, "1", r.URL.Query().Get("getauth"))
			assert.Equal(t, "nino@example.com", r.URL.Query().Get("username"))
			assert.Equal(t, "hunter2", r.URL.Query().Get("password"))
			fmt.Fprint(w, `{"result": 0, "auth": "token-abc", "userid": 7, "email": "nino@example.com", "quota": 10737418240, "usedquota": 5}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client, err := Login(context.Background(), srv.URL, "nino@example.com", "hunter2", srv.Client(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "token-abc", client.AuthToken())
	assert.Equal(t, srv.URL, client.Host())
	require.NotNil(t, client.session)
	assert.Equal(t, int32(1), client.session.refs.Load())
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)

		if r.URL.Path == "/getapiserver" {
			fmt.Fprint(w, `{"result": 0, "api": []}`)
			return
		}

		fmt.Fprint(w, `{"result": 2000, "error": "Log in failed."}`)
	}))
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "nino@example.com", "wrong", srv.Client(), discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ResultLoginFailed)
}

func TestLogin_NoAuthInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)

		if r.URL.Path == "/getapiserver" {
			fmt.Fprint(w, `{"result": 0, "api": []}`)
			return
		}

		fmt.Fprint(w, `{"result": 0, "userid": 7}`)
	}))
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "nino@example.com", "hunter2", srv.Client(), discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ResultAccessDenied)
}

func TestDo_AttachesSessionToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-abc", r.URL.Query().Get("auth"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": 0, "userid": 7, "email": "n@example.com"}`)
	}))
	defer srv.Close()

	client := newSessionClient(t, srv, "token-abc")

	_, err := client.UserInfo(context.Background())
	require.NoError(t, err)
}

func TestDo_AttachesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer oauth-xyz", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("auth"))

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": 0, "userid": 7, "email": "n@example.com"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	client.cred = bearerCredential("oauth-xyz")

	_, err := client.UserInfo(context.Background())
	require.NoError(t, err)
}

func TestDo_UnexpectedHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)

	_, err := client.UserInfo(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "502")
}

func TestDo_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": `)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)

	_, err := client.UserInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClose_RevokesExactlyOnce(t *testing.T) {
	var logoutCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/logout", r.URL.Path)
		assert.Equal(t, "token-abc", r.URL.Query().Get("auth"))
		logoutCalls.Add(1)

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": 0, "auth_deleted": true}`)
	}))
	defer srv.Close()

	client := newSessionClient(t, srv, "token-abc")

	const handles = 8

	clients := []*Client{client}
	for i := 1; i < handles; i++ {
		clients = append(clients, client.Clone())
	}

	var wg sync.WaitGroup
	for _, cl := range clients {
		wg.Add(1)

		go func() {
			defer wg.Done()
			assert.NoError(t, cl.Close(context.Background()))
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), logoutCalls.Load())

	// Redundant closes stay no-ops.
	assert.NoError(t, client.Close(context.Background()))
	assert.Equal(t, int32(1), logoutCalls.Load())
}

func TestClose_SequentialClones(t *testing.T) {
	var logoutCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		logoutCalls.Add(1)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": 0, "auth_deleted": true}`)
	}))
	defer srv.Close()

	client := newSessionClient(t, srv, "token-abc")
	clone := client.Clone()

	assert.Equal(t, client.AuthToken(), clone.AuthToken())

	require.NoError(t, clone.Close(context.Background()))
	assert.Equal(t, int32(0), logoutCalls.Load(), "first release must not revoke")

	require.NoError(t, client.Close(context.Background()))
	assert.Equal(t, int32(1), logoutCalls.Load(), "last release revokes")
}

func TestClose_ReturnsRevocationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newSessionClient(t, srv, "token-abc")

	err := client.Close(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	// The session is locally closed despite the failure.
	assert.NoError(t, client.Close(context.Background()))
}

func TestClose_StatelessHasNothingToRevoke(t *testing.T) {
	client := newTestClient(t, unreachableServer(t))
	client.cred = bearerCredential("oauth-xyz")

	assert.NoError(t, client.Close(context.Background()))
	assert.NoError(t, client.Close(context.Background()))
}

func TestClone_StatelessIsTrivial(t *testing.T) {
	client := newTestClient(t, unreachableServer(t))
	client.cred = bearerCredential("oauth-xyz")

	clone := client.Clone()
	assert.NoError(t, clone.Close(context.Background()))
	assert.NoError(t, client.Close(context.Background()))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
