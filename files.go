package pcloud

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// StatFile fetches a file's metadata. Descriptors pinned with
// AtRevision stat that revision.
func (c *Client) StatFile(ctx context.Context, f File) (*Stat, error) {
	if err := f.validate("stat"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	var out Stat
	if err := c.getJSON(ctx, "stat", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteFile moves a file to the trash and returns its last metadata.
func (c *Client) DeleteFile(ctx context.Context, f File) (*Stat, error) {
	if err := f.validate("deletefile"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	var out Stat
	if err := c.getJSON(ctx, "deletefile", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Checksum returns the server-computed digests of a file revision.
func (c *Client) Checksum(ctx context.Context, f File) (*Checksums, error) {
	if err := f.validate("checksumfile"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	var out Checksums
	if err := c.getJSON(ctx, "checksumfile", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ListRevisions lists the saved revisions of a file, oldest first.
func (c *Client) ListRevisions(ctx context.Context, f File) (*RevisionList, error) {
	if err := f.validate("listrevisions"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	var out RevisionList
	if err := c.getJSON(ctx, "listrevisions", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// FileHistory returns the change events recorded for one file.
func (c *Client) FileHistory(ctx context.Context, f File) (*FileHistory, error) {
	if err := f.validate("getfilehistory"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	var out FileHistory
	if err := c.getJSON(ctx, "getfilehistory", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CopyFileBuilder assembles one copyfile request.
type CopyFileBuilder struct {
	c   *Client
	src File
	dst Folder
	q   url.Values
}

// CopyFile copies src into the dst folder. Both descriptors are
// checked fail-fast: an empty src fails here even when dst is valid.
// The destination resolves to tofolderid when Do runs.
func (c *Client) CopyFile(src File, dst Folder) (*CopyFileBuilder, error) {
	if err := src.validate("copyfile"); err != nil {
		return nil, err
	}

	if err := dst.validate("copyfile"); err != nil {
		return nil, err
	}

	return &CopyFileBuilder{c: c, src: src, dst: dst, q: url.Values{}}, nil
}

// ToName names the copy; the default keeps the source name.
func (b *CopyFileBuilder) ToName(name string) *CopyFileBuilder {
	b.q.Set("toname", name)
	return b
}

// NoOverwrite fails the copy instead of overwriting an existing file.
func (b *CopyFileBuilder) NoOverwrite() *CopyFileBuilder {
	b.q.Set("noover", "1")
	return b
}

// MTime sets the modification time recorded on the copy.
func (b *CopyFileBuilder) MTime(t time.Time) *CopyFileBuilder {
	b.q.Set("mtime", strconv.FormatInt(t.Unix(), 10))
	return b
}

// CTime sets the creation time recorded on the copy. The API requires
// MTime alongside it.
func (b *CopyFileBuilder) CTime(t time.Time) *CopyFileBuilder {
	b.q.Set("ctime", strconv.FormatInt(t.Unix(), 10))
	return b
}

// Do issues the round trip.
func (b *CopyFileBuilder) Do(ctx context.Context) (*Stat, error) {
	dstID, err := b.c.resolveFolderID(ctx, b.dst, "copyfile")
	if err != nil {
		return nil, err
	}

	b.src.params(b.q)
	b.q.Set("tofolderid", strconv.FormatUint(dstID, 10))

	var out Stat
	if err := b.c.getJSON(ctx, "copyfile", b.q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// MoveFileBuilder assembles one renamefile request.
type MoveFileBuilder struct {
	c   *Client
	src File
	dst Folder
	q   url.Values
}

// MoveFile moves src into the dst folder, renaming it when ToName is
// set. Moving within the same folder with ToName renames in place.
func (c *Client) MoveFile(src File, dst Folder) (*MoveFileBuilder, error) {
	if err := src.validate("renamefile"); err != nil {
		return nil, err
	}

	if err := dst.validate("renamefile"); err != nil {
		return nil, err
	}

	return &MoveFileBuilder{c: c, src: src, dst: dst, q: url.Values{}}, nil
}

// ToName gives the file a new name at its destination.
func (b *MoveFileBuilder) ToName(name string) *MoveFileBuilder {
	b.q.Set("toname", name)
	return b
}

// Do issues the round trip.
func (b *MoveFileBuilder) Do(ctx context.Context) (*Stat, error) {
	dstID, err := b.c.resolveFolderID(ctx, b.dst, "renamefile")
	if err != nil {
		return nil, err
	}

	b.src.params(b.q)
	b.q.Set("tofolderid", strconv.FormatUint(dstID, 10))

	var out Stat
	if err := b.c.getJSON(ctx, "renamefile", b.q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
