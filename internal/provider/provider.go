// Package provider implements the built-in job feed providers: generic RSS,
// the Indeed RSS dialect and the WhatJobs XML API.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobfeeds/internal/events"
	"github.com/amishk599/jobfeeds/internal/ingest"
	"github.com/amishk599/jobfeeds/internal/model"
	"github.com/amishk599/jobfeeds/internal/registry"
)

// ID identifies a built-in provider.
type ID string

const (
	GenericRSS ID = "generic_rss"
	Indeed     ID = "indeed"
	WhatJobs   ID = "whatjobs"
)

// Builtins lists the built-in providers in registration order. Indeed comes
// before the generic RSS patterns so Indeed feed URLs resolve to Indeed.
var Builtins = []ID{WhatJobs, Indeed, GenericRSS}

const (
	testTimeout   = 30 * time.Second
	importTimeout = 60 * time.Second
	sampleSize    = 3
)

// BatchImporter persists a provider's parsed candidates.
type BatchImporter interface {
	Import(ctx context.Context, b ingest.Batch) (int, error)
}

// Deps are the collaborators every provider needs.
type Deps struct {
	Getter          model.Getter
	Importer        BatchImporter
	Logger          *slog.Logger
	BotUserAgent    string // used when no client request is in context
	WhatJobsBaseURL string // empty means the public API
}

// New constructs the built-in provider id.
func New(id ID, deps Deps) (model.Provider, error) {
	if deps.Getter == nil || deps.Importer == nil {
		return nil, fmt.Errorf("provider %s: getter and importer are required", id)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	switch id {
	case GenericRSS:
		return NewGenericRSS(deps), nil
	case Indeed:
		return NewIndeed(deps), nil
	case WhatJobs:
		return NewWhatJobs(deps), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", id)
	}
}

// Descriptor returns the registry descriptor of a built-in provider.
func Descriptor(id ID, deps Deps) registry.Descriptor {
	d := registry.Descriptor{
		ID:  string(id),
		New: func() (model.Provider, error) { return New(id, deps) },
	}
	switch id {
	case GenericRSS:
		d.Name, d.Type = "Generic RSS", "rss"
		d.Patterns = []string{`.*\.rss`, `.*\/rss`, `.*\/feed`}
	case Indeed:
		d.Name, d.Type = "Indeed", "rss"
		d.Patterns = []string{`indeed\.com.*\/rss`}
	case WhatJobs:
		d.Name, d.Type = "WhatJobs", "api"
		d.Patterns = []string{`api\.whatjobs\.com`, `whatjobs\.com.*\/api`}
	}
	return d
}

// Extension registers additional providers after the built-ins.
type Extension func(r *registry.Registry) error

// NewRegistry registers the built-in providers, then each extension, and
// publishes one providers_registered event.
func NewRegistry(ctx context.Context, deps Deps, pub events.Publisher, logger *slog.Logger, extensions ...Extension) (*registry.Registry, error) {
	r := registry.New(logger)
	for _, id := range Builtins {
		if err := r.Register(Descriptor(id, deps)); err != nil {
			return nil, err
		}
	}
	for _, ext := range extensions {
		if err := ext(r); err != nil {
			return nil, fmt.Errorf("registering provider extension: %w", err)
		}
	}
	if pub != nil {
		pub.Publish(ctx, events.ProvidersRegistered{IDs: r.IDs()})
	}
	return r, nil
}

func sample(jobs []model.Job) []model.Job {
	if len(jobs) > sampleSize {
		return jobs[:sampleSize]
	}
	return jobs
}

func failure(format string, args ...any) model.ConnectionResult {
	return model.ConnectionResult{Success: false, Message: fmt.Sprintf(format, args...)}
}
