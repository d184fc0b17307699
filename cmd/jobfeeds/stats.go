package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [provider]",
	Short: "Show import statistics per provider",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, appOptions{console: io.Discard})
	if err != nil {
		return err
	}
	defer a.Close()

	ids := a.registry.IDs()
	if len(args) == 1 {
		if _, ok := a.registry.Descriptor(args[0]); !ok {
			return fmt.Errorf("unknown provider %q", args[0])
		}
		ids = args
	}

	fmt.Printf("%-14s %10s %10s %10s\n", "Provider", "Total", "Today", "Active")
	fmt.Println(strings.Repeat("─", 47))
	for _, id := range ids {
		s, err := a.store.ProviderStats(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%-14s %10d %10d %10d\n", id, s.TotalImported, s.TodayImported, s.ActiveJobs)
	}
	return nil
}
