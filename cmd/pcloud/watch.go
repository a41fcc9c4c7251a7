package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// watchDebounce coalesces the burst of events an editor save produces
// into one upload per path.
const watchDebounce = 500 * time.Millisecond

const watchQueueSize = 64

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <local-dir> [remote-folder]",
		Short: "Upload files as they appear in a local directory",
		Long: `Watch a local directory and upload every file that is created or
modified in it. The remote folder defaults to the root. Subdirectories
are not watched, nothing is ever deleted remotely, and dotfiles and
editor backup files are skipped. Runs until interrupted.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	remote := "/"
	if len(args) == 2 {
		remote = args[1]
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}

	if !fi.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}

	folder, err := folderArg(remote)
	if err != nil {
		return err
	}

	logger := buildLogger()
	ctx := shutdownContext(cmd.Context(), logger)

	client, err := apiClient(ctx, logger)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %q: %w", dir, err)
	}

	statusf("Watching %s, uploading to %s. Press Ctrl-C to stop.\n", dir, remote)

	uploads := make(chan string, watchQueueSize)
	deb := newDebouncer()

	g, gctx := errgroup.WithContext(ctx)

	for range resolvedCfg.Transfers.ParallelUploads {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case p := <-uploads:
					if err := uploadOne(gctx, client, folder, p, false, false, logger); err != nil {
						logger.Warn("upload failed",
							slog.String("path", p), slog.String("error", err.Error()))
					}
				}
			}
		})
	}

	g.Go(func() error {
		defer deb.stop()
		return watchLoop(gctx, watcher, deb, uploads, logger)
	})

	return g.Wait()
}

// watchLoop dispatches filesystem events until the context is done or
// the watcher breaks.
func watchLoop(
	ctx context.Context, watcher *fsnotify.Watcher, deb *debouncer,
	uploads chan<- string, logger *slog.Logger,
) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return errors.New("filesystem watcher closed")
			}

			handleWatchEvent(ctx, ev, deb, uploads, logger)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("filesystem watcher closed")
			}

			logger.Warn("filesystem watcher error", slog.String("error", err.Error()))
		}
	}
}

// handleWatchEvent filters one filesystem event and queues an upload
// for it after the debounce interval.
func handleWatchEvent(
	ctx context.Context, ev fsnotify.Event, deb *debouncer,
	uploads chan<- string, logger *slog.Logger,
) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	name := filepath.Base(ev.Name)
	if skipWatchName(name) {
		logger.Debug("watch: skipping", slog.String("name", name))
		return
	}

	fi, err := os.Stat(ev.Name)
	if err != nil {
		// Gone already; short-lived temp files do this constantly.
		return
	}

	if fi.IsDir() {
		return
	}

	path := ev.Name

	deb.trigger(path, func() {
		select {
		case uploads <- path:
		case <-ctx.Done():
		}
	})
}

// skipWatchName filters out files that are never worth uploading:
// dotfiles, editor backups, and partial transfers.
func skipWatchName(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".partial")
}

// debouncer delays an action per key, restarting the delay every time
// the key triggers again.
type debouncer struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
}

func newDebouncer() *debouncer {
	return &debouncer{pending: make(map[string]*time.Timer)}
}

// trigger schedules fire after the debounce interval, or pushes the
// deadline back if the key is already scheduled.
func (d *debouncer) trigger(key string, fire func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[key]; ok {
		t.Reset(watchDebounce)
		return
	}

	d.pending[key] = time.AfterFunc(watchDebounce, func() {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()

		fire()
	})
}

// stop cancels everything not yet fired.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, t := range d.pending {
		t.Stop()
		delete(d.pending, key)
	}
}
