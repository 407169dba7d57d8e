package pool

import (
	"sync"

	"github.com/gofrs/uuid"
	"github.com/tevino/abool"
)

// EventType describes a pool event.
type EventType uint8

// Pool events.
const (
	// EventChanged is sent every time seed material was mixed into the pool.
	EventChanged EventType = iota + 1
	// EventAvailable is sent once per registry, when the pool was seeded for the first time.
	EventAvailable
)

func (et EventType) String() string {
	switch et {
	case EventChanged:
		return "changed"
	case EventAvailable:
		return "available"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers.
type Event struct {
	Type EventType
	// Digest is a digest of the new pool record. It is only set for EventChanged.
	Digest []byte
}

// Handler receives pool events. Handlers run on the notifying goroutine and must not block.
type Handler func(Event)

// Registry distributes pool events to subscribers.
type Registry struct {
	lock      sync.RWMutex
	handlers  map[uuid.UUID]Handler
	available *abool.AtomicBool
}

// DefaultRegistry is used when no registry is configured.
var DefaultRegistry = NewRegistry()

// NewRegistry returns a new, empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:  make(map[uuid.UUID]Handler),
		available: abool.New(),
	}
}

// Subscribe adds a handler and returns its subscription ID.
func (r *Registry) Subscribe(handler Handler) uuid.UUID {
	id := uuid.Must(uuid.NewV4())

	r.lock.Lock()
	defer r.lock.Unlock()

	r.handlers[id] = handler
	return id
}

// Unsubscribe removes a handler. Unknown IDs are ignored.
func (r *Registry) Unsubscribe(id uuid.UUID) {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.handlers, id)
}

// Available returns whether the pool was reported as seeded.
func (r *Registry) Available() bool {
	return r.available.IsSet()
}

// Subscribers returns the amount of subscribed handlers.
func (r *Registry) Subscribers() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.handlers)
}

// PoolChanged notifies subscribers that new seed material was mixed into the pool.
// The first call also notifies subscribers that the pool is available.
func (r *Registry) PoolChanged(digest []byte) {
	r.notify(Event{Type: EventChanged, Digest: digest})

	if r.available.SetToIf(false, true) {
		r.notify(Event{Type: EventAvailable})
	}
}

func (r *Registry) notify(event Event) {
	r.lock.RLock()
	handlers := make([]Handler, 0, len(r.handlers))
	for _, handler := range r.handlers {
		handlers = append(handlers, handler)
	}
	r.lock.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
