package pcloud

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// DiffBuilder assembles one request against the account change feed.
// Without options the feed replays from the beginning of the account's
// history, starting with a reset entry.
type DiffBuilder struct {
	c *Client
	q url.Values
}

// Diff reads the account change feed. Each Do returns one page of
// events and the cursor to resume from.
func (c *Client) Diff() *DiffBuilder {
	return &DiffBuilder{c: c, q: url.Values{}}
}

// Since resumes the feed after a previously returned cursor.
func (b *DiffBuilder) Since(diffid uint64) *DiffBuilder {
	b.q.Set("diffid", strconv.FormatUint(diffid, 10))
	return b
}

// After limits the feed to events newer than t.
func (b *DiffBuilder) After(t time.Time) *DiffBuilder {
	b.q.Set("after", t.Format(timeLayout))
	return b
}

// Last limits the feed to the n most recent events.
func (b *DiffBuilder) Last(n uint64) *DiffBuilder {
	b.q.Set("last", strconv.FormatUint(n, 10))
	return b
}

// Block long-polls: the server holds the request open until an event
// newer than the cursor arrives. Combine with Since and a generous
// request timeout.
func (b *DiffBuilder) Block() *DiffBuilder {
	b.q.Set("block", "1")
	return b
}

// Limit caps the number of events per page.
func (b *DiffBuilder) Limit(n uint64) *DiffBuilder {
	b.q.Set("limit", strconv.FormatUint(n, 10))
	return b
}

// Do issues the round trip.
func (b *DiffBuilder) Do(ctx context.Context) (*Diff, error) {
	var out Diff
	if err := b.c.getJSON(ctx, "diff", b.q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
