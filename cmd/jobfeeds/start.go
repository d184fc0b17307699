package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeeds/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the import daemon",
	Long:  "Start the scheduler daemon; imports all active feeds on the configured schedule and blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("config loaded",
		"database", a.cfg.Database,
		"schedule", a.cfg.Schedule,
		"providers", a.registry.IDs(),
		"dedup", a.cfg.Settings.DeduplicationEnabled,
		"min_description", a.cfg.Settings.DescriptionMinLength,
	)

	sched, err := scheduler.New(a.cfg.Schedule, a.importer, a.cfg.RunOnStart, a.logger)
	if err != nil {
		return err
	}
	if err := sched.Run(ctx); err != nil {
		a.logger.Error("scheduler error", "error", err)
		return err
	}

	a.logger.Info("goodbye")
	return nil
}
