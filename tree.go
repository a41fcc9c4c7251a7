package pcloud

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Tree selects an arbitrary set of files and folders for operations
// that act on many nodes at once, such as building a zip archive. The
// API addresses tree members by numeric id only, so path descriptors
// resolve with one lookup each when the request is built.
type Tree struct {
	folders        []Folder
	files          []File
	excludeFolders []Folder
	excludeFiles   []File
}

// NewTree returns an empty selection.
func NewTree() *Tree {
	return &Tree{}
}

// WithFolder adds a folder and its contents to the selection.
func (t *Tree) WithFolder(f Folder) *Tree {
	t.folders = append(t.folders, f)
	return t
}

// WithFile adds a single file to the selection.
func (t *Tree) WithFile(f File) *Tree {
	t.files = append(t.files, f)
	return t
}

// ExcludeFolder removes a folder from a selection added via
// WithFolder.
func (t *Tree) ExcludeFolder(f Folder) *Tree {
	t.excludeFolders = append(t.excludeFolders, f)
	return t
}

// ExcludeFile removes a single file from the selection.
func (t *Tree) ExcludeFile(f File) *Tree {
	t.excludeFiles = append(t.excludeFiles, f)
	return t
}

// params resolves every member to a numeric id and emits the
// comma-joined tree parameters.
func (t *Tree) params(ctx context.Context, c *Client, op string) (url.Values, error) {
	if len(t.folders) == 0 && len(t.files) == 0 {
		return nil, &Error{Code: ResultNoFullPathOrFolderIDProvided, Endpoint: op, Message: "tree selects nothing"}
	}

	q := url.Values{}

	folderIDs, err := c.resolveFolderIDs(ctx, t.folders, op)
	if err != nil {
		return nil, err
	}

	if folderIDs != "" {
		q.Set("folderids", folderIDs)
	}

	fileIDs, err := c.resolveFileIDs(ctx, t.files, op)
	if err != nil {
		return nil, err
	}

	if fileIDs != "" {
		q.Set("fileids", fileIDs)
	}

	exFolderIDs, err := c.resolveFolderIDs(ctx, t.excludeFolders, op)
	if err != nil {
		return nil, err
	}

	if exFolderIDs != "" {
		q.Set("excludefolderids", exFolderIDs)
	}

	exFileIDs, err := c.resolveFileIDs(ctx, t.excludeFiles, op)
	if err != nil {
		return nil, err
	}

	if exFileIDs != "" {
		q.Set("excludefileids", exFileIDs)
	}

	return q, nil
}

func (c *Client) resolveFolderIDs(ctx context.Context, folders []Folder, op string) (string, error) {
	ids := make([]string, 0, len(folders))

	for _, f := range folders {
		id, err := c.resolveFolderID(ctx, f, op)
		if err != nil {
			return "", err
		}

		ids = append(ids, strconv.FormatUint(id, 10))
	}

	return strings.Join(ids, ","), nil
}

func (c *Client) resolveFileIDs(ctx context.Context, files []File, op string) (string, error) {
	ids := make([]string, 0, len(files))

	for _, f := range files {
		id, err := c.resolveFileID(ctx, f, op)
		if err != nil {
			return "", err
		}

		ids = append(ids, strconv.FormatUint(id, 10))
	}

	return strings.Join(ids, ","), nil
}

// ZipLink returns a download link for a zip archive of the selected
// tree.
func (c *Client) ZipLink(ctx context.Context, t *Tree) (*DownloadLink, error) {
	q, err := t.params(ctx, c, "getziplink")
	if err != nil {
		return nil, err
	}

	var out DownloadLink
	if err := c.getJSON(ctx, "getziplink", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
