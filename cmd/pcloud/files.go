package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	pcloud "github.com/tonimelisma/pcloud-go"
)

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List files and folders",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}

	cmd.Flags().BoolP("long", "l", false, "long listing with size and modification time")
	cmd.Flags().BoolP("recursive", "R", false, "list subfolders recursively")
	cmd.Flags().Bool("deleted", false, "include trashed entries")

	return cmd
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Display file or folder metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

func newMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}

	cmd.Flags().BoolP("parents", "p", false, "create missing parents; existing folders are not an error")

	return cmd
}

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or folder",
		Long: `Delete a file or an empty folder. Deleting a folder with contents
requires --recursive (-r), which removes everything beneath it.

Deletion is permanent as far as this command is concerned; whether the
account's trash retains the items is up to the account's plan settings.`,
		Args: cobra.ExactArgs(1),
		RunE: runRm,
	}

	cmd.Flags().BoolP("recursive", "r", false, "delete a folder and all of its contents")

	return cmd
}

func newCpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cp <source> <destination>",
		Short: "Copy a file or folder server-side",
		Long: `Copy a file or folder without downloading it. A source with a
trailing slash (or a folderid: prefix) is treated as a folder; anything
else is a file. A destination naming an existing folder copies into it,
otherwise the destination's last segment becomes the new name.

Folder copies cannot rename; give a destination folder instead.`,
		Args: cobra.ExactArgs(2),
		RunE: runCp,
	}

	cmd.Flags().Bool("no-overwrite", false, "fail instead of replacing an existing target")

	return cmd
}

func newMvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <source> <destination>",
		Short: "Move or rename a file or folder",
		Long: `Move a file or folder, optionally renaming it. A source with a
trailing slash (or a folderid: prefix) is treated as a folder; anything
else is a file. A destination naming an existing folder moves into it,
otherwise the destination's last segment becomes the new name.`,
		Args: cobra.ExactArgs(2),
		RunE: runMv,
	}

	return cmd
}

// isFolderArg reports whether a command-line argument syntactically
// names a folder: a folderid: prefix, a trailing slash, or the root.
func isFolderArg(arg string) bool {
	return strings.HasPrefix(arg, "folderid:") || strings.HasSuffix(arg, "/")
}

func runLs(cmd *cobra.Command, args []string) error {
	path := "/"
	if len(args) > 0 {
		path = args[0]
	}

	long, _ := cmd.Flags().GetBool("long")
	recursive, _ := cmd.Flags().GetBool("recursive")
	deleted, _ := cmd.Flags().GetBool("deleted")

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	folder, err := folderArg(path)
	if err != nil {
		return err
	}

	b, err := client.ListFolder(folder)
	if err != nil {
		return err
	}

	if recursive {
		b.Recursive()
	}

	if deleted {
		b.ShowDeleted()
	}

	st, err := b.Do(ctx)
	if err != nil {
		return fmt.Errorf("listing %q: %w", path, err)
	}

	entries := flattenEntries("", st.Contents, recursive)

	if flagJSON {
		return printEntriesJSON(entries)
	}

	printEntries(os.Stdout, entries, long)

	return nil
}

// lsEntry is one row of ls output. Path is relative to the listed
// folder and equals Name for flat listings.
type lsEntry struct {
	Path string
	Meta pcloud.Metadata
}

// flattenEntries turns a (possibly nested) contents slice into display
// rows, descending into subfolders when recursive is set.
func flattenEntries(prefix string, contents []pcloud.Metadata, recursive bool) []lsEntry {
	entries := make([]lsEntry, 0, len(contents))

	for i := range contents {
		md := contents[i]
		path := prefix + md.Name

		entries = append(entries, lsEntry{Path: path, Meta: md})

		if recursive && md.IsFolder {
			entries = append(entries, flattenEntries(path+"/", md.Contents, recursive)...)
		}
	}

	return entries
}

// lsJSONItem is the JSON output schema for a single ls entry.
type lsJSONItem struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	IsFolder bool   `json:"is_folder"`
	Modified string `json:"modified"`
	ID       string `json:"id"`
}

func printEntriesJSON(entries []lsEntry) error {
	out := make([]lsJSONItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, lsJSONItem{
			Path:     e.Path,
			Size:     e.Meta.Size,
			IsFolder: e.Meta.IsFolder,
			Modified: e.Meta.Modified.UTC().Format("2006-01-02T15:04:05Z"),
			ID:       e.Meta.ID,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printEntries(w io.Writer, entries []lsEntry, long bool) {
	// Sort: folders first, then alphabetical.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Meta.IsFolder != entries[j].Meta.IsFolder {
			return entries[i].Meta.IsFolder
		}

		return entries[i].Path < entries[j].Path
	})

	if !long {
		for _, e := range entries {
			name := e.Path
			if e.Meta.IsFolder {
				name += "/"
			}

			fmt.Fprintln(w, name)
		}

		return
	}

	headers := []string{"NAME", "SIZE", "MODIFIED"}
	rows := make([][]string, 0, len(entries))

	for _, e := range entries {
		name := e.Path
		size := formatSize(e.Meta.Size)

		if e.Meta.IsFolder {
			name += "/"
			size = "-"
		}

		rows = append(rows, []string{name, size, formatTime(e.Meta.Modified.Time)})
	}

	printTable(w, headers, rows)
}

// statNode fetches metadata for a file or folder argument. File
// arguments that turn out to be folders fall through to a folder stat.
func statNode(ctx context.Context, client *pcloud.Client, arg string) (*pcloud.Metadata, error) {
	if !isFolderArg(arg) {
		f, err := fileArg(arg)
		if err != nil {
			return nil, err
		}

		st, err := client.StatFile(ctx, f)
		if err == nil {
			return &st.Metadata, nil
		}

		if !errors.Is(err, pcloud.ResultFileNotFound) {
			return nil, err
		}
	}

	folder, err := folderArg(arg)
	if err != nil {
		return nil, err
	}

	b, err := client.ListFolder(folder)
	if err != nil {
		return nil, err
	}

	st, err := b.NoFiles().Do(ctx)
	if err != nil {
		return nil, err
	}

	return &st.Metadata, nil
}

// statJSONOutput is the JSON output schema for the stat command.
type statJSONOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	IsFolder bool   `json:"is_folder"`
	Modified string `json:"modified"`
	Created  string `json:"created"`
	MimeType string `json:"mime_type,omitempty"`
	Hash     uint64 `json:"hash,omitempty"`
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	md, err := statNode(ctx, client, args[0])
	if err != nil {
		return fmt.Errorf("stat %q: %w", args[0], err)
	}

	if flagJSON {
		return printStatJSON(md)
	}

	printStatText(md)

	return nil
}

func printStatJSON(md *pcloud.Metadata) error {
	out := statJSONOutput{
		ID:       md.ID,
		Name:     md.Name,
		Size:     md.Size,
		IsFolder: md.IsFolder,
		Modified: md.Modified.UTC().Format("2006-01-02T15:04:05Z"),
		Created:  md.Created.UTC().Format("2006-01-02T15:04:05Z"),
		MimeType: md.ContentType,
		Hash:     md.Hash,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printStatText(md *pcloud.Metadata) {
	nodeType := "file"
	if md.IsFolder {
		nodeType = "folder"
	}

	fmt.Printf("Name:     %s\n", md.Name)
	fmt.Printf("Type:     %s\n", nodeType)

	if md.IsFolder {
		fmt.Printf("ID:       %d\n", md.FolderID)
	} else {
		fmt.Printf("ID:       %d\n", md.FileID)
		fmt.Printf("Size:     %s (%d bytes)\n", formatSize(md.Size), md.Size)
	}

	fmt.Printf("Modified: %s\n", md.Modified.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("Created:  %s\n", md.Created.UTC().Format("2006-01-02 15:04:05 UTC"))

	if md.ContentType != "" {
		fmt.Printf("MIME:     %s\n", md.ContentType)
	}

	if md.IsShared {
		fmt.Printf("Shared:   yes\n")
	}
}

// mkdirJSONOutput is the JSON output schema for the mkdir command.
type mkdirJSONOutput struct {
	Created  string `json:"created"`
	FolderID uint64 `json:"folder_id"`
}

func runMkdir(cmd *cobra.Command, args []string) error {
	path := absRemote(strings.TrimSuffix(args[0], "/"))
	if path == "/" {
		return fmt.Errorf("cannot create the root folder")
	}

	parents, _ := cmd.Flags().GetBool("parents")

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	var st *pcloud.Stat

	if parents {
		st, err = mkdirParents(ctx, client, path)
	} else {
		parent, name := splitRemote(path)
		st, err = client.CreateFolder(ctx, pcloud.FolderPath(parent), name)
	}

	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(mkdirJSONOutput{Created: path, FolderID: st.FolderID})
	}

	statusf("Created %s\n", path)

	return nil
}

// mkdirParents walks the path segments, creating each missing folder.
// createfolderifnotexists makes every step idempotent.
func mkdirParents(ctx context.Context, client *pcloud.Client, path string) (*pcloud.Stat, error) {
	parent := pcloud.RootFolder()

	var st *pcloud.Stat

	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		var err error

		st, err = client.CreateFolderIfNotExists(ctx, parent, seg)
		if err != nil {
			return nil, err
		}

		parent = pcloud.FolderID(st.FolderID)
	}

	return st, nil
}

// rmJSONOutput is the JSON output schema for the rm command.
type rmJSONOutput struct {
	Deleted        string `json:"deleted"`
	DeletedFiles   uint64 `json:"deleted_files,omitempty"`
	DeletedFolders uint64 `json:"deleted_folders,omitempty"`
}

func runRm(cmd *cobra.Command, args []string) error {
	arg := args[0]
	recursive, _ := cmd.Flags().GetBool("recursive")

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	if recursive {
		folder, err := folderArg(arg)
		if err != nil {
			return err
		}

		res, err := client.DeleteFolderRecursive(ctx, folder)
		if err != nil {
			return fmt.Errorf("deleting %q: %w", arg, err)
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(rmJSONOutput{
				Deleted:        arg,
				DeletedFiles:   res.DeletedFiles,
				DeletedFolders: res.DeletedFolders,
			})
		}

		statusf("Deleted %s (%d files, %d folders)\n", arg, res.DeletedFiles, res.DeletedFolders)

		return nil
	}

	if err := rmSingle(ctx, client, arg); err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(rmJSONOutput{Deleted: arg})
	}

	statusf("Deleted %s\n", arg)

	return nil
}

// rmSingle deletes one file, or one empty folder when the argument
// names a folder. Non-empty folders are refused without --recursive.
func rmSingle(ctx context.Context, client *pcloud.Client, arg string) error {
	if !isFolderArg(arg) {
		f, err := fileArg(arg)
		if err != nil {
			return err
		}

		_, err = client.DeleteFile(ctx, f)
		if err == nil {
			return nil
		}

		if !errors.Is(err, pcloud.ResultFileNotFound) {
			return fmt.Errorf("deleting %q: %w", arg, err)
		}
	}

	folder, err := folderArg(arg)
	if err != nil {
		return err
	}

	if _, err := client.DeleteFolder(ctx, folder); err != nil {
		if errors.Is(err, pcloud.ResultFolderNotEmpty) {
			return fmt.Errorf("%q is not empty: use --recursive (-r)", arg)
		}

		return fmt.Errorf("deleting %q: %w", arg, err)
	}

	return nil
}

// destFolderAndName interprets a copy/move destination. An existing
// folder means "into that folder, keep the name"; otherwise the last
// path segment becomes the new name inside its parent.
func destFolderAndName(ctx context.Context, client *pcloud.Client, arg string) (pcloud.Folder, string, error) {
	dst, err := folderArg(arg)
	if err != nil {
		return pcloud.Folder{}, "", err
	}

	if isFolderArg(arg) {
		return dst, "", nil
	}

	b, err := client.ListFolder(dst)
	if err != nil {
		return pcloud.Folder{}, "", err
	}

	if _, lerr := b.NoFiles().Do(ctx); lerr != nil {
		if errors.Is(lerr, pcloud.ResultDirectoryDoesNotExist) {
			parent, name := splitRemote(arg)
			return pcloud.FolderPath(parent), name, nil
		}

		return pcloud.Folder{}, "", lerr
	}

	return dst, "", nil
}

func runCp(cmd *cobra.Command, args []string) error {
	src, dstArg := args[0], args[1]
	noOverwrite, _ := cmd.Flags().GetBool("no-overwrite")

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	dst, name, err := destFolderAndName(ctx, client, dstArg)
	if err != nil {
		return err
	}

	if isFolderArg(src) {
		if name != "" {
			return fmt.Errorf("folder copy cannot rename: give a destination folder")
		}

		srcFolder, err := folderArg(src)
		if err != nil {
			return err
		}

		b, err := client.CopyFolder(srcFolder, dst)
		if err != nil {
			return err
		}

		if noOverwrite {
			b.NoOverwrite()
		}

		if _, err := b.Do(ctx); err != nil {
			return fmt.Errorf("copying %q: %w", src, err)
		}
	} else {
		srcFile, err := fileArg(src)
		if err != nil {
			return err
		}

		b, err := client.CopyFile(srcFile, dst)
		if err != nil {
			return err
		}

		if name != "" {
			b.ToName(name)
		}

		if noOverwrite {
			b.NoOverwrite()
		}

		if _, err := b.Do(ctx); err != nil {
			return fmt.Errorf("copying %q: %w", src, err)
		}
	}

	statusf("Copied %s to %s\n", src, dstArg)

	return nil
}

func runMv(cmd *cobra.Command, args []string) error {
	src, dstArg := args[0], args[1]

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	dst, name, err := destFolderAndName(ctx, client, dstArg)
	if err != nil {
		return err
	}

	if isFolderArg(src) {
		srcFolder, err := folderArg(src)
		if err != nil {
			return err
		}

		b, err := client.MoveFolder(srcFolder, dst)
		if err != nil {
			return err
		}

		if name != "" {
			b.ToName(name)
		}

		if _, err := b.Do(ctx); err != nil {
			return fmt.Errorf("moving %q: %w", src, err)
		}
	} else {
		srcFile, err := fileArg(src)
		if err != nil {
			return err
		}

		b, err := client.MoveFile(srcFile, dst)
		if err != nil {
			return err
		}

		if name != "" {
			b.ToName(name)
		}

		if _, err := b.Do(ctx); err != nil {
			return fmt.Errorf("moving %q: %w", src, err)
		}
	}

	statusf("Moved %s to %s\n", src, dstArg)

	return nil
}
