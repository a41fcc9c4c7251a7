package pcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "pcloud-go/0.1"

// API hosts. Accounts registered in Europe live on EUHost and reject
// credentials on the default host.
const (
	DefaultHost = "https://api.pcloud.com"
	EUHost      = "https://eapi.pcloud.com"
)

// credential decorates an outgoing request with authentication.
// Session tokens travel as the auth query parameter, OAuth2 bearer
// tokens as an Authorization header. Every request passes through
// exactly one attach call.
type credential interface {
	attach(req *http.Request)
}

type sessionCredential struct {
	s *session
}

func (sc sessionCredential) attach(req *http.Request) {
	q := req.URL.Query()
	q.Set("auth", sc.s.token)
	req.URL.RawQuery = q.Encode()
}

type bearerCredential string

func (b bearerCredential) attach(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+string(b))
}

// Client talks to the pCloud API. Construct one with Login,
// NewWithAuth or NewWithToken; the zero value is not usable. A Client
// is safe for concurrent use.
//
// Clients created by Login or NewWithAuth hold a server-side session
// that must be released with Close. Abandoning such a client without
// closing it leaks the session server-side.
type Client struct {
	host       string
	httpClient *http.Client
	logger     *slog.Logger

	cred    credential
	session *session // nil in stateless bearer mode
}

// newClient assembles the transport shared by all constructors.
func newClient(host string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		host:       host,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Login authenticates with a username and password and returns a
// client holding a fresh server-side session. host is DefaultHost or
// EUHost (or a test server URL); the nearest API server is discovered
// automatically, falling back to host. httpClient and logger may be
// nil.
//
// The session is shared by every Clone of the returned client and is
// revoked server-side exactly once, when the last handle is closed.
func Login(ctx context.Context, host, username, password string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	c := newClient(host, httpClient, logger)
	c.host = c.BestEndpoint(ctx)

	q := url.Values{}
	q.Set("getauth", "1")
	q.Set("username", username)
	q.Set("password", password)

	var info UserInfo
	if err := c.getJSON(ctx, "userinfo", q, &info); err != nil {
		return nil, err
	}

	if info.Auth == "" {
		return nil, &Error{Code: ResultAccessDenied, Endpoint: "userinfo", Message: "login response carried no auth token"}
	}

	s := newSession(info.Auth)
	c.session = s
	c.cred = sessionCredential{s}

	c.logger.Debug("login succeeded",
		slog.String("host", c.host),
		slog.Uint64("userid", info.UserID),
	)

	return c, nil
}

// NewWithAuth resumes a previously issued session auth token, such as
// one saved after Login. The returned client owns one reference to the
// session: Close revokes the token server-side, so callers intending
// to reuse the token later should let the process exit without
// closing.
func NewWithAuth(ctx context.Context, host, auth string, httpClient *http.Client, logger *slog.Logger) *Client {
	c := newClient(host, httpClient, logger)

	s := newSession(auth)
	c.session = s
	c.cred = sessionCredential{s}
	c.host = c.BestEndpoint(ctx)

	return c
}

// NewWithToken returns a stateless client that authenticates every
// request with an OAuth2 bearer token. There is no server-side
// session: Close has nothing to revoke and Clone is trivially safe.
func NewWithToken(ctx context.Context, host, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	c := newClient(host, httpClient, logger)
	c.cred = bearerCredential(token)
	c.host = c.BestEndpoint(ctx)

	return c
}

// Clone returns a handle sharing this client's transport and session
// without re-authenticating. Each clone must be released with its own
// Close; the session is revoked when the last handle closes. Clone
// must not be called on a closed client.
func (c *Client) Clone() *Client {
	if c.session != nil {
		c.session.acquire()
	}

	clone := *c

	return &clone
}

// Close releases this handle. Closing the last handle of a session
// revokes it server-side with one blocking logout call and returns
// that call's error; closing earlier handles, already-closed handles,
// or stateless clients returns nil.
func (c *Client) Close(ctx context.Context) error {
	if c.session == nil {
		return nil
	}

	return c.session.release(ctx, c)
}

// Host returns the API base URL the client settled on.
func (c *Client) Host() string {
	return c.host
}

// AuthToken returns the session's auth token so callers can persist it
// across processes. Stateless clients return the empty string.
func (c *Client) AuthToken() string {
	if c.session == nil {
		return ""
	}

	return c.session.token
}

// getJSON issues one GET round trip against an API method, decodes the
// JSON body into out, and normalizes the embedded result code.
func (c *Client) getJSON(ctx context.Context, method string, q url.Values, out apiResult) error {
	return c.callJSON(ctx, http.MethodGet, method, q, nil, "", out)
}

// postJSON is getJSON with a request body.
func (c *Client) postJSON(ctx context.Context, method string, q url.Values, body io.Reader, contentType string, out apiResult) error {
	return c.callJSON(ctx, http.MethodPost, method, q, body, contentType, out)
}

func (c *Client) callJSON(ctx context.Context, httpMethod, method string, q url.Values, body io.Reader, contentType string, out apiResult) error {
	resp, err := c.do(ctx, httpMethod, method, q, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pcloud: %s: decoding response: %w", method, err)
	}

	return out.ensure(method)
}

// do issues a single HTTP request with the credential attached. The
// caller owns the response body. The API reports operation failures
// with status 200 and a result code in the body, so a non-2xx status
// here is a transport-level fault.
func (c *Client) do(ctx context.Context, httpMethod, method string, q url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := c.host + "/" + method
	if q != nil {
		if enc := q.Encode(); enc != "" {
			u += "?" + enc
		}
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, u, body)
	if err != nil {
		return nil, fmt.Errorf("pcloud: %s: creating request: %w", method, err)
	}

	req.Header.Set("User-Agent", userAgent)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.cred != nil {
		c.cred.attach(req)
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pcloud: %s: %w", method, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, fmt.Errorf("%w %d for %s", ErrUnexpectedStatus, resp.StatusCode, method)
	}

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	return resp, nil
}
