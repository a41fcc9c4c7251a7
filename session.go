package pcloud

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// session is a server-side auth session shared by reference between a
// client and its clones. The reference count starts at one; release
// decrements it and the transition to zero triggers the one and only
// server-side revocation, regardless of how many handles release
// concurrently.
type session struct {
	token string
	refs  atomic.Int32
}

func newSession(token string) *session {
	s := &session{token: token}
	s.refs.Store(1)

	return s
}

func (s *session) acquire() {
	s.refs.Add(1)
}

// release drops one reference. The caller that moves the count from
// one to zero performs the blocking logout and receives its error;
// every other caller, including redundant releases after the count
// reached zero, gets nil.
func (s *session) release(ctx context.Context, c *Client) error {
	for {
		cur := s.refs.Load()
		if cur <= 0 {
			return nil
		}

		if !s.refs.CompareAndSwap(cur, cur-1) {
			continue
		}

		if cur > 1 {
			return nil
		}

		return s.revoke(ctx, c)
	}
}

// revoke invalidates the auth token server-side. One attempt only: a
// failed logout still leaves the session locally closed.
func (s *session) revoke(ctx context.Context, c *Client) error {
	var out logoutResponse
	if err := c.getJSON(ctx, "logout", nil, &out); err != nil {
		c.logger.Warn("session revocation failed", slog.String("error", err.Error()))
		return err
	}

	c.logger.Debug("session revoked", slog.Bool("auth_deleted", out.AuthDeleted))

	return nil
}
