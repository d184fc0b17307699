// Package events is a small synchronous in-process event bus.
package events

import (
	"context"
	"sync"

	"github.com/amishk599/jobfeeds/internal/model"
)

// Event names.
const (
	NameJobImported         = "job_imported"
	NameProvidersRegistered = "providers_registered"
)

// Event is anything published on the bus.
type Event interface {
	Name() string
}

// JobImported is published after each job record is created.
type JobImported struct {
	RecordID   int64
	Job        model.Job
	ProviderID string
}

func (JobImported) Name() string { return NameJobImported }

// ProvidersRegistered is published once the built-in and extension providers
// have been registered.
type ProvidersRegistered struct {
	IDs []string
}

func (ProvidersRegistered) Name() string { return NameProvidersRegistered }

// Handler receives published events.
type Handler func(ctx context.Context, e Event)

// Publisher is what producers depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus delivers events to subscribers in subscription order, on the
// publisher's goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers h for events with the given name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish calls every handler subscribed to e.Name().
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[e.Name()]...)
	b.mu.RUnlock()

	for _, h := range hs {
		h(ctx, e)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
