// Package registry maps provider ids to descriptors and lazily constructed
// provider instances.
package registry

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/amishk599/jobfeeds/internal/model"
)

// FallbackID is returned by ResolveFromURL when nothing else matches.
const FallbackID = "generic_rss"

// Constructor builds a provider instance.
type Constructor func() (model.Provider, error)

// Descriptor is the static description of a provider.
type Descriptor struct {
	ID       string
	Name     string
	Type     string   // "rss" or "api"
	Patterns []string // case-insensitive regexes matched against host+path
	New      Constructor
}

type entry struct {
	desc     Descriptor
	patterns []*regexp.Regexp
}

// Registry holds provider descriptors in registration order. It is safe for
// concurrent use; registration may happen after instances were created.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	entries   map[string]entry
	instances map[string]model.Provider
	logger    *slog.Logger
}

// New returns an empty registry.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		entries:   make(map[string]entry),
		instances: make(map[string]model.Provider),
		logger:    logger,
	}
}

// Register adds or replaces the descriptor for d.ID. A replaced id keeps its
// original position in the resolution order and loses only its own cached
// instance.
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("register provider: empty id")
	}
	if d.New == nil {
		return fmt.Errorf("register provider %s: nil constructor", d.ID)
	}

	compiled := make([]*regexp.Regexp, 0, len(d.Patterns))
	for _, p := range d.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return fmt.Errorf("register provider %s: pattern %q: %w", d.ID, p, err)
		}
		compiled = append(compiled, re)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[d.ID]; !exists {
		r.order = append(r.order, d.ID)
	}
	r.entries[d.ID] = entry{desc: d, patterns: compiled}
	delete(r.instances, d.ID)
	return nil
}

// ResolveFromURL returns the id of the first registered provider with a
// pattern matching the URL's host and path. Empty, unparseable or
// unmatched URLs resolve to FallbackID.
func (r *Registry) ResolveFromURL(rawURL string) string {
	target := hostPath(rawURL)
	if target == "" {
		return FallbackID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		for _, re := range r.entries[id].patterns {
			if re.MatchString(target) {
				return id
			}
		}
	}
	return FallbackID
}

func hostPath(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host + u.Path
}

// Descriptor returns the descriptor registered under id.
func (r *Registry) Descriptor(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.desc, ok
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].desc)
	}
	return out
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Instance returns the cached provider for id, constructing it on first use.
// It returns nil when id is unknown or construction fails; callers treat that
// as "provider not available".
func (r *Registry) Instance(id string) model.Provider {
	r.mu.RLock()
	p, ok := r.instances[id]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.instances[id]; ok {
		return p
	}
	e, ok := r.entries[id]
	if !ok {
		r.logger.Warn("unknown provider", "provider", id)
		return nil
	}
	p, err := e.desc.New()
	if err != nil || p == nil {
		r.logger.Warn("provider construction failed", "provider", id, "error", err)
		return nil
	}
	r.instances[id] = p
	return p
}
