package main

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	pcloud "github.com/tonimelisma/pcloud-go"
)

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <file>",
		Short: "Create a public download link",
		Args:  cobra.ExactArgs(1),
		RunE:  runLink,
	}

	cmd.Flags().Duration("expire", 0, "link lifetime from now (e.g. 24h, 168h)")
	cmd.Flags().Uint64("max-downloads", 0, "invalidate the link after this many downloads")
	cmd.Flags().Uint64("max-traffic", 0, "invalidate the link after this many bytes of traffic")
	cmd.Flags().Bool("short", false, "also mint a short link")
	cmd.Flags().String("password", "", "require a password to open the link")

	return cmd
}

func newChecksumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checksum <file>",
		Short: "Print server-side checksums of a file",
		Long: `Print the checksums the storage servers hold for a file. United
States servers return SHA-1 and MD5, European servers SHA-1 and
SHA-256, so which digests appear depends on the account's region.

With --verify the same digests are computed over a local file and
compared. Exit code 0 if they match, 1 if they differ.`,
		Args: cobra.ExactArgs(1),
		RunE: runChecksum,
	}

	cmd.Flags().String("verify", "", "local file to compare against the remote digests")

	return cmd
}

func newRevisionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revisions <file>",
		Short: "List saved revisions of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runRevisions,
	}
}

func newZipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zip <member>...",
		Short: "Download a set of files and folders as one zip archive",
		Long: `Build a zip archive server-side from any mix of files and folders
and download it. Members use the same syntax as other commands: paths,
fileid:N, or folderid:N; folder paths end with a slash.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runZip,
	}

	cmd.Flags().StringP("output", "o", "pcloud.zip", "local name for the archive")
	cmd.Flags().StringArray("exclude", nil, "member to leave out of the archive (repeatable)")

	return cmd
}

// linkJSONOutput is the JSON output schema for the link command.
type linkJSONOutput struct {
	Link      string `json:"link"`
	Code      string `json:"code"`
	ShortLink string `json:"short_link,omitempty"`
	Expires   string `json:"expires,omitempty"`
}

func runLink(cmd *cobra.Command, args []string) error {
	expire, _ := cmd.Flags().GetDuration("expire")
	maxDownloads, _ := cmd.Flags().GetUint64("max-downloads")
	maxTraffic, _ := cmd.Flags().GetUint64("max-traffic")
	short, _ := cmd.Flags().GetBool("short")
	password, _ := cmd.Flags().GetString("password")

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	f, err := fileArg(args[0])
	if err != nil {
		return err
	}

	b, err := client.PublicLink(f)
	if err != nil {
		return err
	}

	if expire > 0 {
		b.Expire(time.Now().Add(expire))
	}

	if maxDownloads > 0 {
		b.MaxDownloads(maxDownloads)
	}

	if maxTraffic > 0 {
		b.MaxTraffic(maxTraffic)
	}

	if short {
		b.ShortLink()
	}

	if password != "" {
		b.Password(password)
	}

	link, err := b.Do(ctx)
	if err != nil {
		return fmt.Errorf("creating link for %q: %w", args[0], err)
	}

	if flagJSON {
		out := linkJSONOutput{
			Link:      link.Link,
			Code:      link.Code,
			ShortLink: link.ShortLink,
		}

		if !link.Expires.IsZero() {
			out.Expires = link.Expires.UTC().Format("2006-01-02T15:04:05Z")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	// The link itself is the output, so it goes to stdout.
	fmt.Println(link.Link)

	if link.ShortLink != "" {
		fmt.Println(link.ShortLink)
	}

	return nil
}

// checksumJSONOutput is the JSON output schema for the checksum command.
type checksumJSONOutput struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA1   string `json:"sha1"`
	MD5    string `json:"md5,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
}

func runChecksum(cmd *cobra.Command, args []string) error {
	verifyPath, _ := cmd.Flags().GetString("verify")

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	f, err := fileArg(args[0])
	if err != nil {
		return err
	}

	sums, err := client.Checksum(ctx, f)
	if err != nil {
		return fmt.Errorf("checksum of %q: %w", args[0], err)
	}

	if verifyPath != "" {
		// Separate func so its defers run before any os.Exit here.
		mismatches, err := verifyLocalFile(verifyPath, sums)
		if err != nil {
			return err
		}

		if len(mismatches) > 0 {
			for _, m := range mismatches {
				fmt.Fprintln(os.Stderr, m)
			}

			os.Exit(1)
		}

		statusf("%s matches %s.\n", verifyPath, args[0])

		return nil
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(checksumJSONOutput{
			Name:   sums.Metadata.Name,
			Size:   sums.Metadata.Size,
			SHA1:   sums.SHA1,
			MD5:    sums.MD5,
			SHA256: sums.SHA256,
		})
	}

	fmt.Printf("sha1    %s\n", sums.SHA1)

	if sums.MD5 != "" {
		fmt.Printf("md5     %s\n", sums.MD5)
	}

	if sums.SHA256 != "" {
		fmt.Printf("sha256  %s\n", sums.SHA256)
	}

	return nil
}

// verifyLocalFile hashes a local file with the digests the server
// reported and returns a description of every mismatch. All digests
// are computed in one pass over the file.
func verifyLocalFile(path string, sums *pcloud.Checksums) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	sha1Hash := sha1.New()
	writers := []io.Writer{sha1Hash}

	var md5Hash, sha256Hash hash.Hash

	if sums.MD5 != "" {
		md5Hash = md5.New()
		writers = append(writers, md5Hash)
	}

	if sums.SHA256 != "" {
		sha256Hash = sha256.New()
		writers = append(writers, sha256Hash)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	var mismatches []string

	check := func(name, remote string, h hash.Hash) {
		if h == nil || remote == "" {
			return
		}

		if local := hex.EncodeToString(h.Sum(nil)); local != remote {
			mismatches = append(mismatches,
				fmt.Sprintf("%s mismatch: local %s, remote %s", name, local, remote))
		}
	}

	check("sha1", sums.SHA1, sha1Hash)
	check("md5", sums.MD5, md5Hash)
	check("sha256", sums.SHA256, sha256Hash)

	return mismatches, nil
}

// revisionJSONItem is the JSON output schema for one revision.
type revisionJSONItem struct {
	RevisionID uint64 `json:"revision_id"`
	Size       int64  `json:"size"`
	Created    string `json:"created"`
}

func runRevisions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	f, err := fileArg(args[0])
	if err != nil {
		return err
	}

	list, err := client.ListRevisions(ctx, f)
	if err != nil {
		return fmt.Errorf("listing revisions of %q: %w", args[0], err)
	}

	if flagJSON {
		out := make([]revisionJSONItem, 0, len(list.Revisions))
		for _, r := range list.Revisions {
			out = append(out, revisionJSONItem{
				RevisionID: r.RevisionID,
				Size:       r.Size,
				Created:    r.Created.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	headers := []string{"REVISION", "SIZE", "CREATED"}
	rows := make([][]string, 0, len(list.Revisions))

	for _, r := range list.Revisions {
		rows = append(rows, []string{
			strconv.FormatUint(r.RevisionID, 10),
			formatSize(r.Size),
			formatTime(r.Created.Time),
		})
	}

	printTable(os.Stdout, headers, rows)

	return nil
}

// buildTree assembles a zip selection from include and exclude
// arguments, using the same folder/file syntax as the rest of the CLI.
func buildTree(includes, excludes []string) (*pcloud.Tree, error) {
	tree := pcloud.NewTree()

	for _, arg := range includes {
		if isFolderArg(arg) {
			folder, err := folderArg(arg)
			if err != nil {
				return nil, err
			}

			tree.WithFolder(folder)

			continue
		}

		f, err := fileArg(arg)
		if err != nil {
			return nil, err
		}

		tree.WithFile(f)
	}

	for _, arg := range excludes {
		if isFolderArg(arg) {
			folder, err := folderArg(arg)
			if err != nil {
				return nil, err
			}

			tree.ExcludeFolder(folder)

			continue
		}

		f, err := fileArg(arg)
		if err != nil {
			return nil, err
		}

		tree.ExcludeFile(f)
	}

	return tree, nil
}

func runZip(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	excludes, _ := cmd.Flags().GetStringArray("exclude")

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	tree, err := buildTree(args, excludes)
	if err != nil {
		return err
	}

	link, err := client.ZipLink(ctx, tree)
	if err != nil {
		return fmt.Errorf("building archive: %w", err)
	}

	body, err := client.OpenLink(ctx, link)
	if err != nil {
		return fmt.Errorf("downloading archive: %w", err)
	}
	defer body.Close()

	dir := filepath.Dir(output)
	tmp := filepath.Join(dir, "."+filepath.Base(output)+"."+uuid.NewString()+".partial")

	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %q: %w", tmp, err)
	}

	written, err := io.Copy(out, body)
	if err == nil {
		err = out.Sync()
	}

	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("downloading archive: %w", err)
	}

	if err := os.Rename(tmp, output); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming archive to %q: %w", output, err)
	}

	statusf("Downloaded %s (%s)\n", output, formatSize(written))

	return nil
}
