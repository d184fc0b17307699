package model

import "context"

// Provider fetches and imports jobs for one kind of feed.
type Provider interface {
	Info() ProviderInfo
	TestConnection(ctx context.Context, feed Feed) ConnectionResult
	ImportJobs(ctx context.Context, feed Feed) (int, error)
}

// ProviderInfo describes a provider's configuration surface.
type ProviderInfo struct {
	ID           string
	Name         string
	Type         string // "rss" or "api"
	Channel      string // log channel for the provider's fetch and parse failures
	AuthFields   []FieldSpec
	Params       []ParamSpec
	FieldMapping map[string]string // job field -> feed field
}

// FieldSpec describes one auth field.
type FieldSpec struct {
	Key         string
	Label       string
	Required    bool
	Description string
}

// ParamSpec describes one feed parameter.
type ParamSpec struct {
	Key         string
	Label       string
	Kind        string // "int", "bool" or "string"
	Default     any
	Min         int
	Max         int
	Description string
}

// ConnectionResult is the outcome of a provider connection test. Expected
// failures are reported here rather than as errors.
type ConnectionResult struct {
	Success    bool
	Message    string
	JobsFound  int
	SampleJobs []Job
	Extra      map[string]string
}
