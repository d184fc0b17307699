package notifier

import (
	"log/slog"

	"github.com/amishk599/jobfeeds/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes imported jobs to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each job. It never fails.
func (n *LogNotifier) Notify(jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{"source", j.Source, "company", j.Company, "title", j.Title, "location", j.Location, "url", j.URL}
		if j.Date != "" {
			args = append(args, "date", j.Date)
		}
		n.logger.Info("job imported", args...)
	}
	return nil
}
