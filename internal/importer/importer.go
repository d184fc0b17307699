// Package importer drives providers over the configured feeds.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobfeeds/internal/model"
)

// Providers resolves provider instances. *registry.Registry satisfies it.
type Providers interface {
	Instance(id string) model.Provider
	ResolveFromURL(rawURL string) string
}

// Importer runs imports and connection tests for stored feeds.
type Importer struct {
	providers Providers
	feeds     model.FeedStore
	base      *slog.Logger
	logger    *slog.Logger
}

// New creates an Importer wired with its dependencies.
func New(providers Providers, feeds model.FeedStore, logger *slog.Logger) *Importer {
	return &Importer{
		providers: providers,
		feeds:     feeds,
		base:      logger,
		logger:    logger.With("channel", "import"),
	}
}

func (im *Importer) provider(feed model.Feed) model.Provider {
	id := feed.Provider
	if id == "" {
		id = im.providers.ResolveFromURL(feed.URL)
	}
	return im.providers.Instance(id)
}

// channel is the log channel for feed's fetch and parse failures.
func (im *Importer) channel(feed model.Feed) string {
	if p := im.provider(feed); p != nil {
		if ch := p.Info().Channel; ch != "" {
			return ch
		}
	}
	return "import"
}

// ImportOne imports a single feed and records the outcome on the feed.
// When the import stops part way (cancellation), the records already created
// are still counted and recorded, and the error is returned alongside.
func (im *Importer) ImportOne(ctx context.Context, feed model.Feed) (int, error) {
	p := im.provider(feed)
	if p == nil {
		return 0, fmt.Errorf("feed %s: %w: %s", feed.ID, model.ErrProviderUnavailable, feed.Provider)
	}

	n, err := p.ImportJobs(ctx, feed)
	if err != nil && n == 0 {
		return 0, fmt.Errorf("feed %s: %w", feed.ID, err)
	}
	if uerr := im.feeds.UpdateLastImport(context.WithoutCancel(ctx), feed.ID, n); uerr != nil {
		return n, errors.Join(err, fmt.Errorf("feed %s: recording last import: %w", feed.ID, uerr))
	}
	if err != nil {
		return n, fmt.Errorf("feed %s: interrupted after %d jobs: %w", feed.ID, n, err)
	}
	return n, nil
}

// ImportByID loads a feed by id and imports it.
func (im *Importer) ImportByID(ctx context.Context, id string) (int, error) {
	feed, err := im.feeds.GetFeed(ctx, id)
	if err != nil {
		return 0, err
	}
	return im.ImportOne(ctx, feed)
}

// ImportAllActive imports every active feed in name order. A failed feed is
// logged once, on its provider's channel, and skipped. Jobs created before a
// feed failed still count towards the total.
func (im *Importer) ImportAllActive(ctx context.Context) (int, error) {
	feeds, err := im.feeds.ListFeeds(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("listing active feeds: %w", err)
	}

	total, failed := 0, 0
	for _, feed := range feeds {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		n, err := im.ImportOne(ctx, feed)
		total += n
		if err != nil {
			failed++
			im.base.Error("feed import failed",
				"channel", im.channel(feed),
				"feed_id", feed.ID,
				"feed", feed.Name,
				"provider", feed.Provider,
				"imported", n,
				"error", err,
			)
			continue
		}
		im.logger.Info("feed imported", "feed_id", feed.ID, "feed", feed.Name, "imported", n)
	}

	im.logger.Info("import cycle complete", "feeds", len(feeds), "failed", failed, "imported", total)
	return total, nil
}

// TestFeed runs the feed's provider connection test.
func (im *Importer) TestFeed(ctx context.Context, feed model.Feed) model.ConnectionResult {
	p := im.provider(feed)
	if p == nil {
		return model.ConnectionResult{Message: fmt.Sprintf("Provider %q is not available", feed.Provider)}
	}
	return p.TestConnection(ctx, feed)
}

// TestProvider tests an ad-hoc configuration against providerID.
func (im *Importer) TestProvider(ctx context.Context, providerID string, feed model.Feed) model.ConnectionResult {
	feed.Provider = providerID
	return im.TestFeed(ctx, feed)
}
