package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amishk599/jobfeeds/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProvider struct{ id string }

func (s *stubProvider) Info() model.ProviderInfo { return model.ProviderInfo{ID: s.id} }
func (s *stubProvider) TestConnection(context.Context, model.Feed) model.ConnectionResult {
	return model.ConnectionResult{Success: true}
}
func (s *stubProvider) ImportJobs(context.Context, model.Feed) (int, error) { return 0, nil }

func stubConstructor(id string, calls *int) Constructor {
	return func() (model.Provider, error) {
		if calls != nil {
			*calls++
		}
		return &stubProvider{id: id}, nil
	}
}

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(discardLogger())
	descs := []Descriptor{
		{ID: "whatjobs", Type: "api", Patterns: []string{`api\.whatjobs\.com`, `whatjobs\.com.*\/api`}, New: stubConstructor("whatjobs", nil)},
		{ID: "indeed", Type: "rss", Patterns: []string{`indeed\.com.*\/rss`}, New: stubConstructor("indeed", nil)},
		{ID: "generic_rss", Type: "rss", Patterns: []string{`.*\.rss`, `.*\/rss`, `.*\/feed`}, New: stubConstructor("generic_rss", nil)},
	}
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			t.Fatalf("Register(%s): %v", d.ID, err)
		}
	}
	return r
}

func TestResolveFromURL(t *testing.T) {
	r := builtinRegistry(t)

	tests := []struct {
		url  string
		want string
	}{
		{"https://api.whatjobs.com/api/v1/jobs.xml?publisher=1", "whatjobs"},
		{"https://br.whatjobs.com/partner/api/jobs", "whatjobs"},
		{"https://br.indeed.com/rss?q=golang", "indeed"},
		{"https://WWW.INDEED.COM/RSS", "indeed"},
		{"https://example.com/jobs/feed", "generic_rss"},
		{"https://example.com/jobs.rss", "generic_rss"},
		{"https://example.com/careers", "generic_rss"},
		{"", "generic_rss"},
		{"://bad url", "generic_rss"},
	}
	for _, tt := range tests {
		if got := r.ResolveFromURL(tt.url); got != tt.want {
			t.Errorf("ResolveFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestResolveFromURL_FirstRegisteredWins(t *testing.T) {
	r := New(discardLogger())
	r.Register(Descriptor{ID: "first", Patterns: []string{`jobs`}, New: stubConstructor("first", nil)})
	r.Register(Descriptor{ID: "second", Patterns: []string{`example\.com`}, New: stubConstructor("second", nil)})

	if got := r.ResolveFromURL("https://example.com/jobs"); got != "first" {
		t.Errorf("got %q, want first", got)
	}
}

func TestRegister_OverwriteKeepsPosition(t *testing.T) {
	r := builtinRegistry(t)
	r.Register(Descriptor{ID: "whatjobs", Name: "WhatJobs v2", Patterns: []string{`whatjobs`}, New: stubConstructor("whatjobs", nil)})

	ids := r.IDs()
	if len(ids) != 3 || ids[0] != "whatjobs" {
		t.Fatalf("IDs() = %v, want whatjobs first of 3", ids)
	}
	d, ok := r.Descriptor("whatjobs")
	if !ok || d.Name != "WhatJobs v2" {
		t.Errorf("Descriptor(whatjobs) = %+v, %v", d, ok)
	}
}

func TestRegister_RejectsBadPattern(t *testing.T) {
	r := New(discardLogger())
	err := r.Register(Descriptor{ID: "bad", Patterns: []string{`(`}, New: stubConstructor("bad", nil)})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if _, ok := r.Descriptor("bad"); ok {
		t.Error("descriptor should not be registered")
	}
}

func TestInstance_CachedAndLateRegistration(t *testing.T) {
	r := New(discardLogger())
	calls := 0
	r.Register(Descriptor{ID: "generic_rss", New: stubConstructor("generic_rss", &calls)})

	first := r.Instance("generic_rss")
	if first == nil {
		t.Fatal("expected instance")
	}

	r.Register(Descriptor{ID: "custom", Patterns: []string{`custom\.example`}, New: stubConstructor("custom", nil)})

	if again := r.Instance("generic_rss"); again != first {
		t.Error("late registration reinitialised an existing instance")
	}
	if calls != 1 {
		t.Errorf("constructor calls = %d, want 1", calls)
	}
	if r.Instance("custom") == nil {
		t.Error("expected late-registered instance")
	}
	if got := r.ResolveFromURL("https://custom.example/jobs"); got != "custom" {
		t.Errorf("ResolveFromURL = %q, want custom", got)
	}
}

func TestInstance_UnavailableReturnsNil(t *testing.T) {
	r := New(discardLogger())
	r.Register(Descriptor{ID: "broken", New: func() (model.Provider, error) {
		return nil, errors.New("missing dependency")
	}})

	if p := r.Instance("unknown"); p != nil {
		t.Errorf("Instance(unknown) = %v, want nil", p)
	}
	if p := r.Instance("broken"); p != nil {
		t.Errorf("Instance(broken) = %v, want nil", p)
	}
}
