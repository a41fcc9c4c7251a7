package pcloud

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// File names a remote file by numeric id or absolute path, optionally
// pinned to a revision. Build one with FileID, FilePath or FileFrom;
// the zero value names nothing and fails every operation with
// ResultNoFileIDOrPathProvided.
//
// A descriptor carrying an id is already canonical: it never triggers
// network lookups, even when a path is also present.
type File struct {
	id       uint64
	hasID    bool
	path     string
	revision uint64
	hasRev   bool

	invalid    Result // poisoned at construction, surfaced fail-fast
	invalidMsg string
}

// FileID names a file by its numeric id.
func FileID(id uint64) File {
	return File{id: id, hasID: true}
}

// FilePath names a file by its absolute remote path.
func FilePath(path string) File {
	return File{path: path}
}

// FileFrom names the file described by previously fetched metadata.
// Folder metadata poisons the descriptor; the mismatch surfaces as
// ResultInvalidFileOrFolderName when the descriptor is first used.
func FileFrom(md *Metadata) File {
	if md.IsFolder {
		return File{invalid: ResultInvalidFileOrFolderName, invalidMsg: "metadata describes a folder, not a file"}
	}

	return File{id: md.FileID, hasID: true}
}

// AtRevision pins the descriptor to one saved revision. Operations
// emit it as a revisionid parameter.
func (f File) AtRevision(revisionid uint64) File {
	f.revision = revisionid
	f.hasRev = true

	return f
}

// IsEmpty reports whether the descriptor carries no identifier.
func (f File) IsEmpty() bool {
	return !f.hasID && f.path == "" && f.invalid == 0
}

func (f File) String() string {
	switch {
	case f.invalid != 0:
		return "file(invalid)"
	case f.hasID && f.hasRev:
		return fmt.Sprintf("%d@%d", f.id, f.revision)
	case f.hasID:
		return strconv.FormatUint(f.id, 10)
	case f.path != "":
		return f.path
	default:
		return "file(empty)"
	}
}

// validate is the fail-fast identifier check run at builder
// construction, before any network traffic.
func (f File) validate(op string) error {
	if f.invalid != 0 {
		return &Error{Code: f.invalid, Endpoint: op, Message: f.invalidMsg}
	}

	if !f.hasID && f.path == "" {
		return &Error{Code: ResultNoFileIDOrPathProvided, Endpoint: op}
	}

	return nil
}

// params emits the descriptor's identifier. The numeric id wins when
// both id and path are present. Never does I/O.
func (f File) params(q url.Values) {
	if f.hasID {
		q.Set("fileid", strconv.FormatUint(f.id, 10))
	} else if f.path != "" {
		q.Set("path", f.path)
	}

	if f.hasRev {
		q.Set("revisionid", strconv.FormatUint(f.revision, 10))
	}
}

// Folder names a remote folder by numeric id or absolute path. Build
// one with FolderID, FolderPath, FolderFrom or RootFolder; the zero
// value names nothing and fails every operation with
// ResultNoFullPathOrFolderIDProvided.
type Folder struct {
	id    uint64
	hasID bool
	path  string

	invalid    Result
	invalidMsg string
}

// FolderID names a folder by its numeric id. The root folder is id 0.
func FolderID(id uint64) Folder {
	return Folder{id: id, hasID: true}
}

// FolderPath names a folder by its absolute remote path. "/" maps to
// the root folder id 0 without any lookup; a relative path poisons the
// descriptor with ResultInvalidPath.
func FolderPath(path string) Folder {
	if path == "/" {
		return Folder{hasID: true}
	}

	if !strings.HasPrefix(path, "/") {
		return Folder{invalid: ResultInvalidPath, invalidMsg: "folder path must be absolute"}
	}

	return Folder{path: path}
}

// RootFolder names the account root, folder id 0.
func RootFolder() Folder {
	return Folder{hasID: true}
}

// FolderFrom names the folder described by previously fetched
// metadata. File metadata poisons the descriptor with
// ResultInvalidFileOrFolderName.
func FolderFrom(md *Metadata) Folder {
	if !md.IsFolder {
		return Folder{invalid: ResultInvalidFileOrFolderName, invalidMsg: "metadata describes a file, not a folder"}
	}

	return Folder{id: md.FolderID, hasID: true}
}

// IsEmpty reports whether the descriptor carries no identifier.
func (f Folder) IsEmpty() bool {
	return !f.hasID && f.path == "" && f.invalid == 0
}

func (f Folder) String() string {
	switch {
	case f.invalid != 0:
		return "folder(invalid)"
	case f.hasID:
		return strconv.FormatUint(f.id, 10)
	case f.path != "":
		return f.path
	default:
		return "folder(empty)"
	}
}

func (f Folder) validate(op string) error {
	if f.invalid != 0 {
		return &Error{Code: f.invalid, Endpoint: op, Message: f.invalidMsg}
	}

	if !f.hasID && f.path == "" {
		return &Error{Code: ResultNoFullPathOrFolderIDProvided, Endpoint: op}
	}

	return nil
}

func (f Folder) params(q url.Values) {
	if f.hasID {
		q.Set("folderid", strconv.FormatUint(f.id, 10))
	} else if f.path != "" {
		q.Set("path", f.path)
	}
}

// resolveFileID returns the numeric file id, issuing exactly one stat
// request when the descriptor carries only a path. Descriptors with an
// id resolve locally.
func (c *Client) resolveFileID(ctx context.Context, f File, op string) (uint64, error) {
	if err := f.validate(op); err != nil {
		return 0, err
	}

	if f.hasID {
		return f.id, nil
	}

	q := url.Values{}
	q.Set("path", f.path)

	var st Stat
	if err := c.getJSON(ctx, "stat", q, &st); err != nil {
		return 0, err
	}

	if st.Metadata.IsFolder {
		return 0, &Error{Code: ResultInvalidFileOrFolderName, Endpoint: op, Message: "path names a folder, not a file"}
	}

	return st.Metadata.FileID, nil
}

// resolveFolderID returns the numeric folder id, issuing exactly one
// listfolder lookup when the descriptor carries only a path.
func (c *Client) resolveFolderID(ctx context.Context, f Folder, op string) (uint64, error) {
	if err := f.validate(op); err != nil {
		return 0, err
	}

	if f.hasID {
		return f.id, nil
	}

	q := url.Values{}
	q.Set("path", f.path)
	q.Set("nofiles", "1")

	var st Stat
	if err := c.getJSON(ctx, "listfolder", q, &st); err != nil {
		return 0, err
	}

	if !st.Metadata.IsFolder {
		return 0, &Error{Code: ResultInvalidFileOrFolderName, Endpoint: op, Message: "path names a file, not a folder"}
	}

	return st.Metadata.FolderID, nil
}
