package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeeds/internal/config"
	"github.com/amishk599/jobfeeds/internal/events"
	"github.com/amishk599/jobfeeds/internal/fetch"
	"github.com/amishk599/jobfeeds/internal/importer"
	"github.com/amishk599/jobfeeds/internal/ingest"
	"github.com/amishk599/jobfeeds/internal/lock"
	"github.com/amishk599/jobfeeds/internal/logging"
	"github.com/amishk599/jobfeeds/internal/model"
	"github.com/amishk599/jobfeeds/internal/notifier"
	"github.com/amishk599/jobfeeds/internal/provider"
	"github.com/amishk599/jobfeeds/internal/ratelimit"
	"github.com/amishk599/jobfeeds/internal/registry"
	"github.com/amishk599/jobfeeds/internal/retry"
	"github.com/amishk599/jobfeeds/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobfeeds",
	Short: "Import job listings from RSS feeds and job APIs",
	Long:  "jobfeeds imports job listings from RSS feeds, Indeed and the WhatJobs API into a local job board database.",
	// With no subcommand, run the daemon.
	RunE:          runStart,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBFEEDS_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it. A missing default file
// yields the default configuration.
func loadConfig(path string) (*config.Config, error) {
	path, explicit := config.ResolvePath(path)
	cfg, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func consoleHandler(w io.Writer, dbg bool) slog.Handler {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
}

func setupLogger(dbg bool) *slog.Logger {
	return slog.New(consoleHandler(os.Stdout, dbg))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "none":
		return nil
	default:
		return notifier.NewLogNotifier(logger)
	}
}

type appOptions struct {
	dryRun bool
	// console receives log output; nil means stdout.
	console io.Writer
}

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.SQLiteStore
	bus      *events.Bus
	registry *registry.Registry
	pipeline *ingest.Pipeline
	importer *importer.Importer
	closers  []func() error
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	console := opts.console
	if console == nil {
		console = os.Stdout
	}

	st, err := store.NewSQLiteStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a := &app{cfg: cfg, store: st, bus: events.NewBus()}
	a.closers = append(a.closers, st.Close)

	a.logger = slog.New(logging.NewTeeHandler(consoleHandler(console, debug), st, slog.LevelInfo))

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	limiter := ratelimit.NewHostRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.HostOverrides)
	var getter model.Getter = fetch.NewClient(httpClient, cfg.HTTP.UserAgent)
	getter = ratelimit.NewRateLimitedGetter(getter, limiter)
	getter = retry.NewRetryGetter(getter, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, a.logger)

	var locker lock.Locker
	if cfg.Lock.RedisURL != "" {
		client, err := lock.NewRedisClient(ctx, cfg.Lock.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		locker = lock.NewRedisLocker(client, cfg.Lock.TTL, a.logger)
	}

	var records model.RecordStore = st
	var feeds model.FeedStore = st
	if opts.dryRun {
		a.logger.Info("dry-run mode enabled, nothing will be written")
		records = store.NewNopStore()
		feeds = store.ReadOnlyFeeds{FeedStore: st}
	} else if n := setupNotifier(cfg, httpClient, a.logger); n != nil {
		notifier.Subscribe(a.bus, n, a.logger)
	}

	a.pipeline = ingest.NewPipeline(records, ingest.Settings{
		MinDescriptionLength: cfg.Settings.DescriptionMinLength,
		Deduplicate:          cfg.Settings.DeduplicationEnabled,
	}, locker, a.bus, a.logger)

	deps := provider.Deps{
		Getter:          getter,
		Importer:        a.pipeline,
		Logger:          a.logger,
		BotUserAgent:    botUserAgent(cfg),
		WhatJobsBaseURL: cfg.WhatJobs.BaseURL,
	}
	a.registry, err = provider.NewRegistry(ctx, deps, a.bus, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.importer = importer.New(a.registry, feeds, a.logger)
	return a, nil
}

func botUserAgent(cfg *config.Config) string {
	if cfg.SiteURL == "" {
		return cfg.HTTP.UserAgent
	}
	return fmt.Sprintf("%s (+%s)", cfg.HTTP.UserAgent, cfg.SiteURL)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// openStore opens only the database, for commands that need nothing else.
func openStore() (*store.SQLiteStore, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return store.NewSQLiteStore(cfg.Database)
}
