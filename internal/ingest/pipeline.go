// Package ingest turns candidate jobs into persisted job records: acceptance,
// deduplication, remote detection, metadata, taxonomy terms and the
// job_imported event.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/jobfeeds/internal/events"
	"github.com/amishk599/jobfeeds/internal/extract"
	"github.com/amishk599/jobfeeds/internal/filter"
	"github.com/amishk599/jobfeeds/internal/lock"
	"github.com/amishk599/jobfeeds/internal/model"
)

// Metadata keys written on every imported record.
const (
	MetaLocation    = "_job_location"
	MetaCompany     = "_company_name"
	MetaApplication = "_application"
	MetaExpires     = "_job_expires"
	MetaFilled      = "_filled"
	MetaFeatured    = "_featured"
	MetaSalary      = "_job_salary"
	MetaRemote      = "_remote_position"
	MetaProvider    = "_job_killer_provider"
	MetaImported    = "_job_killer_imported"
	MetaSourceURL   = "_job_killer_source_url"
)

const expiryDays = 30

// Settings are the global import settings.
type Settings struct {
	MinDescriptionLength int
	Deduplicate          bool
}

// Enricher contributes provider-specific metadata and taxonomy terms.
type Enricher interface {
	ExtraMeta(job model.Job) map[string]string
	ExtraTerms(job model.Job) map[string]string // taxonomy -> term name
}

// Batch is one provider's parsed candidates for one feed.
type Batch struct {
	ProviderID string
	Channel    string // log channel, e.g. "rss" or "whatjobs"
	Feed       model.Feed
	Jobs       []model.Job
	Enricher   Enricher // optional
}

// Pipeline persists candidate jobs.
type Pipeline struct {
	records model.RecordStore
	accept  model.JobFilter
	dedup   bool
	locker  lock.Locker
	events  events.Publisher
	logger  *slog.Logger
	now     func() time.Time
}

// NewPipeline wires a pipeline. locker and pub may be nil.
func NewPipeline(records model.RecordStore, settings Settings, locker lock.Locker, pub events.Publisher, logger *slog.Logger) *Pipeline {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Pipeline{
		records: records,
		accept:  filter.NewAcceptanceFilter(settings.MinDescriptionLength),
		dedup:   settings.Deduplicate,
		locker:  locker,
		events:  pub,
		logger:  logger,
		now:     time.Now,
	}
}

// Import runs every candidate through the pipeline and returns how many
// records were created. Per-item failures are logged and skipped; only
// context cancellation stops the batch.
func (p *Pipeline) Import(ctx context.Context, b Batch) (int, error) {
	logger := p.logger.With("channel", b.Channel, "provider", b.ProviderID, "feed", b.Feed.ID)

	imported := 0
	for _, job := range b.Jobs {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		job.Source = b.ProviderID

		if !p.accept.Match(job) {
			logger.Debug("job rejected by acceptance filter", "title", job.Title)
			continue
		}

		id, created, err := p.persist(ctx, b, job)
		if err != nil {
			logger.Error("importing job failed", "title", job.Title, "error", err)
			continue
		}
		if !created {
			logger.Debug("duplicate job skipped", "title", job.Title, "company", job.Company)
			continue
		}

		p.attachTerms(ctx, logger, b, id, job)
		p.events.Publish(ctx, events.JobImported{RecordID: id, Job: job, ProviderID: b.ProviderID})
		imported++
	}

	logger.Info("import batch complete", "candidates", len(b.Jobs), "imported", imported)
	return imported, nil
}

func (p *Pipeline) persist(ctx context.Context, b Batch, job model.Job) (int64, bool, error) {
	if !p.dedup {
		id, err := p.records.CreateRecord(ctx, p.buildRecord(b, job))
		return id, err == nil, err
	}

	unlock, err := p.locker.Lock(ctx, fingerprint(job))
	if err != nil {
		return 0, false, fmt.Errorf("locking %q: %w", job.Title, err)
	}
	defer unlock()

	dup, err := p.IsDuplicate(ctx, job)
	if err != nil {
		return 0, false, err
	}
	if dup {
		return 0, false, nil
	}
	id, err := p.records.CreateRecord(ctx, p.buildRecord(b, job))
	return id, err == nil, err
}

// IsDuplicate reports whether a published job record with the same title
// exists whose company and location match the candidate's, where an empty
// candidate company or location matches anything.
func (p *Pipeline) IsDuplicate(ctx context.Context, job model.Job) (bool, error) {
	q := model.RecordQuery{
		Type:       model.RecordTypeJobListing,
		Status:     model.StatusPublish,
		Title:      strings.TrimSpace(job.Title),
		MetaEquals: map[string]string{},
	}
	if c := strings.TrimSpace(job.Company); c != "" {
		q.MetaEquals[MetaCompany] = c
	}
	if l := strings.TrimSpace(job.Location); l != "" {
		q.MetaEquals[MetaLocation] = l
	}
	_, found, err := p.records.FindRecord(ctx, q)
	if err != nil {
		return false, fmt.Errorf("checking duplicate of %q: %w", job.Title, err)
	}
	return found, nil
}

func fingerprint(job model.Job) string {
	return strings.ToLower(strings.TrimSpace(job.Title))
}

func (p *Pipeline) buildRecord(b Batch, job model.Job) model.Record {
	now := p.now()
	remote := extract.Remote(job.Title, job.Description, job.Location)

	meta := map[string]string{
		MetaLocation:    strings.TrimSpace(job.Location),
		MetaCompany:     strings.TrimSpace(job.Company),
		MetaApplication: job.URL,
		MetaExpires:     now.AddDate(0, 0, expiryDays).Format(time.DateOnly),
		MetaFilled:      "0",
		MetaFeatured:    "0",
		MetaSalary:      strings.TrimSpace(job.Salary),
		MetaRemote:      boolString(remote),
		MetaProvider:    b.ProviderID,
		MetaImported:    now.Format(time.DateTime),
		MetaSourceURL:   job.URL,
	}
	if b.Enricher != nil {
		for k, v := range b.Enricher.ExtraMeta(job) {
			meta[k] = v
		}
	}

	return model.Record{
		Title:   strings.TrimSpace(job.Title),
		Content: extract.SanitizeHTML(job.Description),
		Status:  model.StatusPublish,
		Type:    model.RecordTypeJobListing,
		Meta:    meta,
	}
}

func (p *Pipeline) attachTerms(ctx context.Context, logger *slog.Logger, b Batch, id int64, job model.Job) {
	terms := map[string]string{
		model.TaxonomyJobType:  jobTypeTerm(job),
		model.TaxonomyCategory: b.Feed.Params.String("default_category"),
		model.TaxonomyRegion:   b.Feed.Params.String("default_region"),
	}
	if b.Enricher != nil {
		for tax, name := range b.Enricher.ExtraTerms(job) {
			if strings.TrimSpace(name) != "" {
				terms[tax] = name
			}
		}
	}

	for _, tax := range []string{model.TaxonomyJobType, model.TaxonomyCategory, model.TaxonomyRegion} {
		name := strings.TrimSpace(terms[tax])
		if name == "" {
			continue
		}
		termID, err := p.records.GetOrCreateTerm(ctx, tax, name)
		if err != nil {
			logger.Warn("creating term failed", "taxonomy", tax, "term", name, "error", err)
			continue
		}
		if err := p.records.AttachTerms(ctx, id, tax, []int64{termID}); err != nil {
			logger.Warn("attaching term failed", "taxonomy", tax, "term", name, "record", id, "error", err)
		}
	}
}

func jobTypeTerm(job model.Job) string {
	if strings.TrimSpace(job.JobType) != "" {
		return extract.NormalizeJobType(job.JobType)
	}
	return extract.JobType(job.Title + " " + extract.PlainText(job.Description))
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
