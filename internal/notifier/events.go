package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobfeeds/internal/events"
	"github.com/amishk599/jobfeeds/internal/model"
)

// Subscribe sends every job_imported event on bus to n.
func Subscribe(bus *events.Bus, n model.Notifier, logger *slog.Logger) {
	bus.Subscribe(events.NameJobImported, func(_ context.Context, e events.Event) {
		imported, ok := e.(events.JobImported)
		if !ok {
			return
		}
		if err := n.Notify([]model.Job{imported.Job}); err != nil {
			logger.Warn("notification failed", "record_id", imported.RecordID, "provider", imported.ProviderID, "error", err)
		}
	})
}
