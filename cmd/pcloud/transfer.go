package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	pcloud "github.com/tonimelisma/pcloud-go"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <remote-file>...",
		Short: "Download files",
		Long: `Download one or more files. Multiple files transfer in parallel,
bounded by the parallel_downloads setting. Each file lands in a hidden
temporary name first and is renamed into place only when complete, so
an interrupted transfer never leaves a truncated file behind.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGet,
	}

	cmd.Flags().StringP("output", "o", "", "local name for the downloaded file (single file only)")
	cmd.Flags().StringP("dir", "C", ".", "directory to download into")

	return cmd
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-file>... [remote-folder]",
		Short: "Upload files",
		Long: `Upload one or more files. When the last argument starts with "/" or
"folderid:" it names the destination folder; otherwise everything
uploads to the root. Multiple files transfer in parallel, bounded by
the parallel_uploads setting.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPut,
	}

	cmd.Flags().Bool("rename-if-exists", false, "store under a new name instead of replacing an existing file")
	cmd.Flags().Bool("no-partial", false, "reject the upload entirely if the connection drops mid-transfer")

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	dir, _ := cmd.Flags().GetString("dir")

	if output != "" && len(args) > 1 {
		return fmt.Errorf("--output only applies to a single file")
	}

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolvedCfg.Transfers.ParallelDownloads)

	for _, arg := range args {
		g.Go(func() error {
			return downloadOne(gctx, client, arg, dir, output, logger)
		})
	}

	return g.Wait()
}

// downloadOne fetches a single remote file into dir. The content lands
// in a uniquely-named dotfile first; the final name appears only after
// a completed transfer.
func downloadOne(ctx context.Context, client *pcloud.Client, arg, dir, output string, logger *slog.Logger) error {
	f, err := fileArg(arg)
	if err != nil {
		return err
	}

	name := output
	if name == "" {
		name, err = remoteName(ctx, client, f, arg)
		if err != nil {
			return err
		}
	}

	body, err := client.Download(ctx, f)
	if err != nil {
		return fmt.Errorf("downloading %q: %w", arg, err)
	}
	defer body.Close()

	target := filepath.Join(dir, name)
	tmp := filepath.Join(dir, "."+name+"."+uuid.NewString()+".partial")

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
		return fmt.Errorf("downloading %q: %w", arg, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming download to %q: %w", target, err)
	}

	logger.Debug("download complete", "path", target, "bytes", written)
	statusf("Downloaded %s (%s)\n", target, formatSize(written))

	return nil
}

// remoteName decides the local filename for a download. Path arguments
// carry their name; id arguments need a stat round trip.
func remoteName(ctx context.Context, client *pcloud.Client, f pcloud.File, arg string) (string, error) {
	if !strings.HasPrefix(arg, "fileid:") {
		return path.Base(absRemote(arg)), nil
	}

	st, err := client.StatFile(ctx, f)
	if err != nil {
		return "", fmt.Errorf("resolving name of %q: %w", arg, err)
	}

	return st.Name, nil
}

func runPut(cmd *cobra.Command, args []string) error {
	renameIfExists, _ := cmd.Flags().GetBool("rename-if-exists")
	noPartial, _ := cmd.Flags().GetBool("no-partial")

	locals := args
	remote := "/"

	if len(args) > 1 {
		last := args[len(args)-1]
		if strings.HasPrefix(last, "/") || strings.HasPrefix(last, "folderid:") {
			remote = last
			locals = args[:len(args)-1]
		}
	}

	folder, err := folderArg(remote)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := buildLogger()

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolvedCfg.Transfers.ParallelUploads)

	for _, local := range locals {
		g.Go(func() error {
			return uploadOne(gctx, client, folder, local, renameIfExists, noPartial, logger)
		})
	}

	return g.Wait()
}

// uploadOne sends a single local file into the destination folder.
func uploadOne(
	ctx context.Context, client *pcloud.Client, folder pcloud.Folder,
	local string, renameIfExists, noPartial bool, logger *slog.Logger,
) error {
	fi, err := os.Stat(local)
	if err != nil {
		return fmt.Errorf("stating %q: %w", local, err)
	}

	if fi.IsDir() {
		return fmt.Errorf("%q is a directory, not a file", local)
	}

	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("opening %q: %w", local, err)
	}
	defer f.Close()

	b, err := client.Upload(folder)
	if err != nil {
		return err
	}

	// macOS filesystems hand out NFD names; the API stores NFC.
	name := norm.NFC.String(filepath.Base(local))

	b.AddFile(name, f).MTime(fi.ModTime())

	if renameIfExists {
		b.RenameIfExists()
	}

	if noPartial {
		b.NoPartial()
	}

	res, err := b.Do(ctx)
	if err != nil {
		return fmt.Errorf("uploading %q: %w", local, err)
	}

	for i := range res.Metadata {
		logger.Debug("upload complete",
			"name", res.Metadata[i].Name, "file_id", res.Metadata[i].FileID)
		statusf("Uploaded %s (%s)\n", res.Metadata[i].Name, formatSize(res.Metadata[i].Size))
	}

	return nil
}
