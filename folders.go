package pcloud

import (
	"context"
	"net/url"
	"strconv"
)

// ListFolderBuilder assembles one listfolder request. Builders are
// single-shot: chain options, then call Do once.
type ListFolderBuilder struct {
	c *Client
	q url.Values
}

// ListFolder lists a folder's contents. It fails fast when f carries
// no identifier, before any network traffic.
func (c *Client) ListFolder(f Folder) (*ListFolderBuilder, error) {
	if err := f.validate("listfolder"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	return &ListFolderBuilder{c: c, q: q}, nil
}

// Recursive includes the full subtree, nested under Contents.
func (b *ListFolderBuilder) Recursive() *ListFolderBuilder {
	b.q.Set("recursive", "1")
	return b
}

// ShowDeleted includes entries that sit in the trash.
func (b *ListFolderBuilder) ShowDeleted() *ListFolderBuilder {
	b.q.Set("showdeleted", "1")
	return b
}

// NoFiles limits the listing to folders.
func (b *ListFolderBuilder) NoFiles() *ListFolderBuilder {
	b.q.Set("nofiles", "1")
	return b
}

// NoShares omits entries shared with the user.
func (b *ListFolderBuilder) NoShares() *ListFolderBuilder {
	b.q.Set("noshares", "1")
	return b
}

// Do issues the round trip.
func (b *ListFolderBuilder) Do(ctx context.Context) (*Stat, error) {
	var out Stat
	if err := b.c.getJSON(ctx, "listfolder", b.q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CreateFolder creates a folder under parent. The parent resolves to a
// numeric id, costing one lookup when it is a path.
func (c *Client) CreateFolder(ctx context.Context, parent Folder, name string) (*Stat, error) {
	return c.createFolder(ctx, "createfolder", parent, name)
}

// CreateFolderIfNotExists is CreateFolder, except an existing folder
// of the same name is returned instead of an error.
func (c *Client) CreateFolderIfNotExists(ctx context.Context, parent Folder, name string) (*Stat, error) {
	return c.createFolder(ctx, "createfolderifnotexists", parent, name)
}

func (c *Client) createFolder(ctx context.Context, method string, parent Folder, name string) (*Stat, error) {
	parentID, err := c.resolveFolderID(ctx, parent, method)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("folderid", strconv.FormatUint(parentID, 10))
	q.Set("name", name)

	var out Stat
	if err := c.getJSON(ctx, method, q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteFolder removes an empty folder.
func (c *Client) DeleteFolder(ctx context.Context, f Folder) (*Stat, error) {
	if err := f.validate("deletefolder"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	var out Stat
	if err := c.getJSON(ctx, "deletefolder", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteFolderRecursive removes a folder and everything beneath it.
// Nothing is moved to the trash; the contents are gone for good.
func (c *Client) DeleteFolderRecursive(ctx context.Context, f Folder) (*DeleteResult, error) {
	if err := f.validate("deletefolderrecursive"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)

	var out DeleteResult
	if err := c.getJSON(ctx, "deletefolderrecursive", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CopyFolderBuilder assembles one copyfolder request.
type CopyFolderBuilder struct {
	c        *Client
	src, dst Folder
	q        url.Values
}

// CopyFolder copies src and its contents into dst. Both descriptors
// are checked fail-fast; dst resolves to tofolderid when Do runs.
func (c *Client) CopyFolder(src, dst Folder) (*CopyFolderBuilder, error) {
	if err := src.validate("copyfolder"); err != nil {
		return nil, err
	}

	if err := dst.validate("copyfolder"); err != nil {
		return nil, err
	}

	return &CopyFolderBuilder{c: c, src: src, dst: dst, q: url.Values{}}, nil
}

// NoOverwrite fails the copy instead of overwriting existing entries.
func (b *CopyFolderBuilder) NoOverwrite() *CopyFolderBuilder {
	b.q.Set("noover", "1")
	return b
}

// SkipExisting silently skips files that already exist at the target.
func (b *CopyFolderBuilder) SkipExisting() *CopyFolderBuilder {
	b.q.Set("skipexisting", "1")
	return b
}

// ContentOnly copies the folder's contents into dst rather than the
// folder itself.
func (b *CopyFolderBuilder) ContentOnly() *CopyFolderBuilder {
	b.q.Set("copycontentonly", "1")
	return b
}

// Do issues the round trip.
func (b *CopyFolderBuilder) Do(ctx context.Context) (*Stat, error) {
	srcID, err := b.c.resolveFolderID(ctx, b.src, "copyfolder")
	if err != nil {
		return nil, err
	}

	dstID, err := b.c.resolveFolderID(ctx, b.dst, "copyfolder")
	if err != nil {
		return nil, err
	}

	b.q.Set("folderid", strconv.FormatUint(srcID, 10))
	b.q.Set("tofolderid", strconv.FormatUint(dstID, 10))

	var out Stat
	if err := b.c.getJSON(ctx, "copyfolder", b.q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// MoveFolderBuilder assembles one renamefolder request.
type MoveFolderBuilder struct {
	c        *Client
	src, dst Folder
	q        url.Values
}

// MoveFolder moves src into dst, renaming it when ToName is set.
func (c *Client) MoveFolder(src, dst Folder) (*MoveFolderBuilder, error) {
	if err := src.validate("renamefolder"); err != nil {
		return nil, err
	}

	if err := dst.validate("renamefolder"); err != nil {
		return nil, err
	}

	return &MoveFolderBuilder{c: c, src: src, dst: dst, q: url.Values{}}, nil
}

// ToName gives the folder a new name at its destination.
func (b *MoveFolderBuilder) ToName(name string) *MoveFolderBuilder {
	b.q.Set("toname", name)
	return b
}

// Do issues the round trip.
func (b *MoveFolderBuilder) Do(ctx context.Context) (*Stat, error) {
	srcID, err := b.c.resolveFolderID(ctx, b.src, "renamefolder")
	if err != nil {
		return nil, err
	}

	dstID, err := b.c.resolveFolderID(ctx, b.dst, "renamefolder")
	if err != nil {
		return nil, err
	}

	b.q.Set("folderid", strconv.FormatUint(srcID, 10))
	b.q.Set("tofolderid", strconv.FormatUint(dstID, 10))

	var out Stat
	if err := b.c.getJSON(ctx, "renamefolder", b.q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
