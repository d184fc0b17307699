package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeeds/internal/model"
)

var (
	logsChannel string
	logsLevel   string
	logsLimit   int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show stored import logs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored logs",
	Args:  cobra.NoArgs,
	RunE:  runLogsClear,
}

func init() {
	logsCmd.Flags().StringVar(&logsChannel, "channel", "", "only this channel (rss, whatjobs, import, scheduler, admin)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "only this level (debug, info, warn, error)")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 50, "maximum number of entries")
	logsCmd.AddCommand(logsClearCmd)
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.ListLogs(context.Background(), model.LogQuery{
		Channel: logsChannel,
		Level:   logsLevel,
		Limit:   logsLimit,
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No log entries.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s %-5s [%s] %s%s\n",
			e.Time.Local().Format(time.DateTime),
			strings.ToUpper(e.Level),
			e.Channel,
			e.Message,
			formatContext(e.Context),
		)
	}
	return nil
}

func formatContext(ctx map[string]any) string {
	if len(ctx) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, ctx[k])
	}
	return b.String()
}

func runLogsClear(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.ClearLogs(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d log entries.\n", n)
	return nil
}
