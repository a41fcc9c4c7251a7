package pcloud

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
)

// OpenFlags control how OpenFile and CreateFile open the remote file.
// The values mirror the API's O_* constants.
type OpenFlags uint64

const (
	OpenWrite  OpenFlags = 0x0002
	OpenCreate OpenFlags = 0x0040
	OpenExcl   OpenFlags = 0x0080
	OpenTrunc  OpenFlags = 0x0100
	OpenAppend OpenFlags = 0x0200
)

// FileHandle is an open server-side file descriptor. Handles belong
// to the session that opened them, are not safe for concurrent use,
// and must be released with Close.
type FileHandle struct {
	c      *Client
	fd     uint64
	fileID uint64
}

// OpenFile opens an existing file through the stateful fileops
// surface.
func (c *Client) OpenFile(ctx context.Context, f File, flags OpenFlags) (*FileHandle, error) {
	if err := f.validate("file_open"); err != nil {
		return nil, err
	}

	q := url.Values{}
	f.params(q)
	q.Set("flags", strconv.FormatUint(uint64(flags), 10))

	return c.fileOpen(ctx, q)
}

// CreateFile opens a file by name under a parent folder, creating it
// when flags include OpenCreate. The parent resolves to a numeric id.
func (c *Client) CreateFile(ctx context.Context, parent Folder, name string, flags OpenFlags) (*FileHandle, error) {
	parentID, err := c.resolveFolderID(ctx, parent, "file_open")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("folderid", strconv.FormatUint(parentID, 10))
	q.Set("name", name)
	q.Set("flags", strconv.FormatUint(uint64(flags), 10))

	return c.fileOpen(ctx, q)
}

func (c *Client) fileOpen(ctx context.Context, q url.Values) (*FileHandle, error) {
	var out fileOpenResponse
	if err := c.getJSON(ctx, "file_open", q, &out); err != nil {
		return nil, err
	}

	return &FileHandle{c: c, fd: out.FD, fileID: out.FileID}, nil
}

// FileID returns the id of the file behind the handle.
func (h *FileHandle) FileID() uint64 {
	return h.fileID
}

// Write appends data at the handle's current offset and reports how
// many bytes the server accepted.
func (h *FileHandle) Write(ctx context.Context, data []byte) (int, error) {
	q := url.Values{}
	q.Set("fd", strconv.FormatUint(h.fd, 10))

	var out fileWriteResponse
	if err := h.c.postJSON(ctx, "file_write", q, bytes.NewReader(data), "application/octet-stream", &out); err != nil {
		return 0, err
	}

	return int(out.Bytes), nil
}

// Close releases the server-side descriptor.
func (h *FileHandle) Close(ctx context.Context) error {
	q := url.Values{}
	q.Set("fd", strconv.FormatUint(h.fd, 10))

	var out fileCloseResponse

	return h.c.getJSON(ctx, "file_close", q, &out)
}
