package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pcloud "github.com/tonimelisma/pcloud-go"
	"github.com/tonimelisma/pcloud-go/internal/state"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show account change events",
		Long: `Show the account's change feed: file and folder creations,
modifications, deletions, and share activity. The position in the feed
is remembered per account, so each run picks up where the previous one
left off; the first run shows only recent history.

With --follow the command keeps running and prints events as they
happen. With --json each event is printed as one JSON object per line.`,
		Args: cobra.NoArgs,
		RunE: runEvents,
	}

	cmd.Flags().BoolP("follow", "f", false, "keep running and print events as they arrive")
	cmd.Flags().Uint64("since", 0, "replay events after this cursor instead of the saved one")
	cmd.Flags().Uint64("limit", 100, "events per page")
	cmd.Flags().Bool("reset", false, "forget the saved cursor and exit")

	return cmd
}

// eventJSONItem is the JSON output schema for one change event.
type eventJSONItem struct {
	DiffID    uint64 `json:"diff_id"`
	Event     string `json:"event"`
	Time      string `json:"time"`
	Name      string `json:"name,omitempty"`
	FileID    uint64 `json:"file_id,omitempty"`
	FolderID  uint64 `json:"folder_id,omitempty"`
	IsFolder  bool   `json:"is_folder,omitempty"`
	ShareName string `json:"share_name,omitempty"`
}

func runEvents(cmd *cobra.Command, _ []string) error {
	follow, _ := cmd.Flags().GetBool("follow")
	reset, _ := cmd.Flags().GetBool("reset")
	limit, _ := cmd.Flags().GetUint64("limit")
	since, _ := cmd.Flags().GetUint64("since")
	sinceSet := cmd.Flags().Changed("since")

	logger := buildLogger()

	ctx := cmd.Context()
	if follow {
		ctx = shutdownContext(ctx, logger)
	}

	store, err := state.Open(resolvedCfg.StateFile, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	httpClient := newHTTPClient()
	if follow {
		// A blocked feed request stays open until something happens,
		// so the whole-transfer timeout cannot apply.
		httpClient.Timeout = 0
	}

	client, err := apiClientWith(ctx, logger, httpClient)
	if err != nil {
		return err
	}

	info, err := client.UserInfo(ctx)
	if err != nil {
		return err
	}

	host := client.Host()
	userID := int64(info.UserID)

	if reset {
		if err := store.ResetCursor(ctx, host, userID); err != nil {
			return err
		}

		statusf("Event cursor reset.\n")

		return nil
	}

	cursor, haveCursor, err := store.Cursor(ctx, host, userID)
	if err != nil {
		return err
	}

	b := client.Diff()

	switch {
	case sinceSet:
		b.Since(since).Limit(limit)
	case haveCursor:
		b.Since(uint64(cursor)).Limit(limit)
	default:
		// No saved position: show recent history, not the full replay
		// of everything the account ever did.
		b.Last(limit)
	}

	for {
		d, err := b.Do(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Interrupted while waiting; the cursor is already saved.
				return nil
			}

			return err
		}

		if err := printDiffEntries(d.Entries); err != nil {
			return err
		}

		if d.DiffID != 0 {
			if err := store.SaveCursor(ctx, host, userID, int64(d.DiffID)); err != nil {
				return err
			}

			cursor = int64(d.DiffID)
		}

		if !follow && (len(d.Entries) == 0 || d.DiffID == 0) {
			return nil
		}

		b = client.Diff().Since(uint64(cursor)).Limit(limit)
		if follow {
			b.Block()
		}
	}
}

// printDiffEntries streams entries to stdout, one line each, so output
// is useful while following.
func printDiffEntries(entries []pcloud.DiffEntry) error {
	enc := json.NewEncoder(os.Stdout)

	for _, e := range entries {
		if flagJSON {
			item := eventJSONItem{
				DiffID: e.DiffID,
				Event:  string(e.Event),
				Time:   e.Time.UTC().Format("2006-01-02T15:04:05Z"),
			}

			if e.Metadata != nil {
				item.Name = e.Metadata.Name
				item.FileID = e.Metadata.FileID
				item.FolderID = e.Metadata.FolderID
				item.IsFolder = e.Metadata.IsFolder
			}

			if e.Share != nil {
				item.ShareName = e.Share.ShareName
			}

			if err := enc.Encode(item); err != nil {
				return err
			}

			continue
		}

		fmt.Printf("%s  %-18s %s\n",
			e.Time.Format("2006-01-02 15:04:05"), e.Event, describeEvent(e))
	}

	return nil
}

// describeEvent renders the subject of an event for the text output.
func describeEvent(e pcloud.DiffEntry) string {
	switch {
	case e.Event == pcloud.EventReset:
		return "(event history truncated, listing must be rebuilt)"
	case e.Metadata != nil && e.Metadata.IsFolder:
		return e.Metadata.Name + "/"
	case e.Metadata != nil:
		return e.Metadata.Name
	case e.Share != nil:
		return e.Share.ShareName
	}

	return ""
}
