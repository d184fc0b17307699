package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeeds/internal/model"
	"github.com/amishk599/jobfeeds/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Browse feeds and their sample jobs interactively (TUI)",
	Long:  "Shows the feed picker, tests the chosen feed, then displays the sample jobs.",
	Args:  cobra.NoArgs,
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	// Any console output corrupts the TUI, so logs only reach the store.
	a, err := newApp(context.Background(), appOptions{dryRun: true, console: io.Discard})
	if err != nil {
		return err
	}
	defer a.Close()

	feeds, err := a.store.ListFeeds(context.Background(), false)
	if err != nil {
		return err
	}
	if len(feeds) == 0 {
		fmt.Println("No feeds configured. Add one with `jobfeeds feeds add`.")
		return nil
	}

	for {
		idx, err := preview.RunFeedPicker(feeds)
		if err != nil {
			return err
		}
		if idx < 0 {
			return nil
		}

		feed := feeds[idx]
		result, err := preview.RunLoader(feed.Name, func(ctx context.Context) model.ConnectionResult {
			return a.importer.TestFeed(ctx, feed)
		})
		if err != nil {
			return err
		}

		quit, err := preview.RunSamples(feed.Name, result)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}
