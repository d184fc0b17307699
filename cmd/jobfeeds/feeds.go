package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeeds/internal/model"
)

var (
	feedName     string
	feedURL      string
	feedProvider string
	feedAuth     map[string]string
	feedParams   map[string]string
	feedInactive bool
	feedActive   bool
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Manage configured feeds",
}

var feedsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all feeds",
	Args:  cobra.NoArgs,
	RunE:  runFeedsList,
}

var feedsShowCmd = &cobra.Command{
	Use:   "show <feed-id>",
	Short: "Show a feed's configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedsShow,
}

var feedsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a feed",
	Long:  "Adds a feed. When --provider is omitted the provider is detected from --url.",
	Args:  cobra.NoArgs,
	RunE:  runFeedsAdd,
}

var feedsUpdateCmd = &cobra.Command{
	Use:   "update <feed-id>",
	Short: "Update a feed",
	Long:  "Updates the given fields of a feed. --auth and --param values are merged into the existing ones.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedsUpdate,
}

var feedsRemoveCmd = &cobra.Command{
	Use:   "remove <feed-id>",
	Short: "Delete a feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedsRemove,
}

var feedsToggleCmd = &cobra.Command{
	Use:   "toggle <feed-id>",
	Short: "Activate or deactivate a feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedsToggle,
}

func init() {
	for _, c := range []*cobra.Command{feedsAddCmd, feedsUpdateCmd} {
		c.Flags().StringVar(&feedName, "name", "", "feed name")
		c.Flags().StringVar(&feedURL, "url", "", "feed URL")
		c.Flags().StringVar(&feedProvider, "provider", "", "provider id")
		c.Flags().StringToStringVar(&feedAuth, "auth", nil, "auth values, key=value")
		c.Flags().StringToStringVar(&feedParams, "param", nil, "provider parameters, key=value")
	}
	feedsAddCmd.Flags().BoolVar(&feedInactive, "inactive", false, "add the feed deactivated")
	feedsUpdateCmd.Flags().BoolVar(&feedActive, "active", true, "whether the feed is active")

	feedsCmd.AddCommand(feedsListCmd, feedsShowCmd, feedsAddCmd, feedsUpdateCmd, feedsRemoveCmd, feedsToggleCmd)
	rootCmd.AddCommand(feedsCmd)
}

// sanitizeURL trims rawURL and checks it is an absolute http(s) URL.
func sanitizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &model.ConfigError{Field: "url", Msg: fmt.Sprintf("%q is not an http(s) URL", rawURL)}
	}
	return u.String(), nil
}

func runFeedsList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	feeds, err := st.ListFeeds(context.Background(), false)
	if err != nil {
		return err
	}

	fmt.Printf("%-36s  %-25s %-12s %-8s %s\n", "ID", "Name", "Provider", "Status", "Last import")
	fmt.Println(strings.Repeat("─", 100))

	active := 0
	for _, f := range feeds {
		status := "inactive"
		if f.Active {
			status = "active"
			active++
		}
		last := "never"
		if f.LastImportAt != nil {
			last = fmt.Sprintf("%s (%d)", f.LastImportAt.Local().Format(time.DateTime), f.LastImportCount)
		}
		fmt.Printf("%-36s  %-25s %-12s %-8s %s\n", f.ID, truncate(f.Name, 25), f.Provider, status, last)
	}

	fmt.Printf("\nTotal: %d feeds (%d active, %d inactive)\n", len(feeds), active, len(feeds)-active)
	return nil
}

func runFeedsShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	f, err := st.GetFeed(context.Background(), args[0])
	if err != nil {
		return err
	}
	printFeed(os.Stdout, f)
	return nil
}

func printFeed(w io.Writer, f model.Feed) {
	fmt.Fprintf(w, "ID:          %s\n", f.ID)
	fmt.Fprintf(w, "Name:        %s\n", f.Name)
	fmt.Fprintf(w, "URL:         %s\n", f.URL)
	fmt.Fprintf(w, "Provider:    %s\n", f.Provider)
	fmt.Fprintf(w, "Active:      %t\n", f.Active)
	fmt.Fprintf(w, "Created:     %s\n", f.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Updated:     %s\n", f.UpdatedAt.Local().Format(time.DateTime))
	if f.LastImportAt != nil {
		fmt.Fprintf(w, "Last import: %s (%d jobs)\n", f.LastImportAt.Local().Format(time.DateTime), f.LastImportCount)
	}
	if len(f.Auth) > 0 {
		fmt.Fprintln(w, "Auth:")
		for k := range f.Auth {
			fmt.Fprintf(w, "  %s: ****\n", k)
		}
	}
	if len(f.Params) > 0 {
		params, _ := json.MarshalIndent(f.Params, "  ", "  ")
		fmt.Fprintf(w, "Params:\n  %s\n", params)
	}
}

func runFeedsAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, appOptions{console: io.Discard})
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := sanitizeURL(feedURL)
	if err != nil {
		return err
	}
	f := model.Feed{
		Name:     strings.TrimSpace(feedName),
		URL:      u,
		Provider: feedProvider,
		Active:   !feedInactive,
		Auth:     feedAuth,
		Params:   paramsFromFlags(feedParams),
	}
	if f.Provider == "" {
		f.Provider = a.registry.ResolveFromURL(f.URL)
	}
	if _, ok := a.registry.Descriptor(f.Provider); !ok {
		return &model.ConfigError{Field: "provider", Msg: fmt.Sprintf("unknown provider %q", f.Provider)}
	}

	f, err = a.store.InsertFeed(ctx, f)
	if err != nil {
		return err
	}
	a.logger.Info("feed added", "channel", "admin", "feed_id", f.ID, "feed", f.Name, "provider", f.Provider)
	fmt.Printf("Added feed %s (%s, provider %s)\n", f.ID, f.Name, f.Provider)
	return nil
}

func runFeedsUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, appOptions{console: io.Discard})
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := a.store.GetFeed(ctx, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		f.Name = strings.TrimSpace(feedName)
	}
	if flags.Changed("url") {
		if f.URL, err = sanitizeURL(feedURL); err != nil {
			return err
		}
	}
	if flags.Changed("provider") {
		if _, ok := a.registry.Descriptor(feedProvider); !ok {
			return &model.ConfigError{Field: "provider", Msg: fmt.Sprintf("unknown provider %q", feedProvider)}
		}
		f.Provider = feedProvider
	}
	if flags.Changed("active") {
		f.Active = feedActive
	}
	if len(feedAuth) > 0 {
		if f.Auth == nil {
			f.Auth = map[string]string{}
		}
		for k, v := range feedAuth {
			f.Auth[k] = v
		}
	}
	if len(feedParams) > 0 {
		if f.Params == nil {
			f.Params = model.Params{}
		}
		for k, v := range paramsFromFlags(feedParams) {
			f.Params[k] = v
		}
	}

	if err := a.store.UpdateFeed(ctx, f); err != nil {
		return err
	}
	a.logger.Info("feed updated", "channel", "admin", "feed_id", f.ID, "feed", f.Name)
	fmt.Printf("Updated feed %s\n", f.ID)
	return nil
}

func runFeedsRemove(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteFeed(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed feed %s\n", args[0])
	return nil
}

func runFeedsToggle(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	active, err := st.ToggleActive(context.Background(), args[0])
	if err != nil {
		return err
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Printf("Feed %s %s\n", args[0], state)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
