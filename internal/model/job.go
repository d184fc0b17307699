package model

import (
	"context"
	"net/http"
	"time"
)

// Record types, statuses and taxonomies used by the import pipeline.
const (
	RecordTypeJobListing = "job_listing"
	StatusPublish        = "publish"

	TaxonomyJobType  = "job_listing_type"
	TaxonomyCategory = "job_listing_category"
	TaxonomyRegion   = "job_listing_region"
)

// Job is a candidate job produced by a provider before acceptance,
// deduplication and persistence.
type Job struct {
	Title       string
	Description string // raw HTML as delivered by the feed
	URL         string
	Date        string // raw date string from the feed
	Company     string
	Location    string
	Salary      string
	Source      string // provider id

	// Optional fields only some providers fill.
	JobType     string
	Logo        string
	AgeDays     int
	Site        string
	Category    string
	Subcategory string
	Country     string
	State       string
	City        string
	PostalCode  string
}

// Record is a persisted content record with open string metadata.
type Record struct {
	ID        int64
	Title     string
	Content   string
	Status    string
	Type      string
	Meta      map[string]string
	CreatedAt time.Time
}

// RecordQuery selects records by type, status, exact title and exact
// metadata values. Empty fields are not constrained.
type RecordQuery struct {
	Type       string
	Status     string
	Title      string
	MetaEquals map[string]string
}

// ProviderStats summarises records imported by one provider.
type ProviderStats struct {
	Provider      string
	TotalImported int
	TodayImported int
	ActiveJobs    int
}

// LogEntry is one persisted log line.
type LogEntry struct {
	ID      int64
	Time    time.Time
	Level   string
	Channel string
	Message string
	Context map[string]any
}

// LogQuery filters persisted log lines. Zero values match everything.
type LogQuery struct {
	Level   string
	Channel string
	Limit   int
}

// Getter performs HTTP GET requests and returns the response body.
// Non-200 responses are reported as *HTTPError.
type Getter interface {
	Get(ctx context.Context, url string, header http.Header) ([]byte, error)
}

// RecordStore persists imported jobs and their taxonomy terms.
type RecordStore interface {
	CreateRecord(ctx context.Context, rec Record) (int64, error)
	FindRecord(ctx context.Context, q RecordQuery) (int64, bool, error)
	GetOrCreateTerm(ctx context.Context, taxonomy, name string) (int64, error)
	AttachTerms(ctx context.Context, recordID int64, taxonomy string, termIDs []int64) error
}

// FeedStore is the part of the feed configuration store the importer needs.
type FeedStore interface {
	ListFeeds(ctx context.Context, activeOnly bool) ([]Feed, error)
	GetFeed(ctx context.Context, id string) (Feed, error)
	UpdateLastImport(ctx context.Context, id string, count int) error
}

// Notifier sends notifications for newly imported jobs.
type Notifier interface {
	Notify(jobs []Job) error
}

// JobFilter decides whether a candidate job is accepted.
type JobFilter interface {
	Match(job Job) bool
}
